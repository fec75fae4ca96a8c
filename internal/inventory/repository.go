package inventory

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
)

type Repository interface {
	// Decrement subtracts qty only when the counter can cover it. ok is false
	// when no row matched.
	Decrement(ctx context.Context, productID string, counter model.Counter, qty int) (after int, ok bool, err error)
	// Adjust adds delta (possibly negative) without letting the counter drop
	// below zero.
	Adjust(ctx context.Context, productID string, counter model.Counter, delta int) (after int, ok bool, err error)
	// Current returns the counter value; found is false for unknown products
	// and unlimited services.
	Current(ctx context.Context, productID string, counter model.Counter) (value int, found bool, err error)

	LogMovement(ctx context.Context, movement *model.InventoryMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Product, int, error)
}
