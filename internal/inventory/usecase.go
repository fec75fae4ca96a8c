package inventory

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-storefront/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
)

var ErrBusy = errors.New("inventory is being adjusted, please try again")

type UseCase interface {
	AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.InventoryMovement, error)
	// ConsumeForOrder decrements every line inside the caller's transaction
	// and fails with *apperror.InsufficientInventoryError on the first
	// shortfall.
	ConsumeForOrder(ctx context.Context, orderID string, lines []dto.ConsumeLine) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Product, int, error)
}
