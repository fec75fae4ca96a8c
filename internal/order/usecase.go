package order

import (
	"context"
	"io"

	checkoutdto "github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/order/dto"
)

type UseCase interface {
	// Commit persists a priced summary as a paid order in one transaction.
	Commit(ctx context.Context, owner model.CartOwner, summary *checkoutdto.Summary) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	// GetOwnedOrder reports NotFound when owner did not place the order.
	GetOwnedOrder(ctx context.Context, id string, owner model.CartOwner) (*model.Order, error)
	ListMine(ctx context.Context, owner model.CartOwner, filters *dto.ListFilters) ([]model.Order, int, error)
	UpdateStatus(ctx context.Context, input *dto.UpdateStatusInput) (*model.Order, error)
	Cancel(ctx context.Context, id string) (*model.Order, error)
	Export(ctx context.Context, filters *dto.ExportFilters, w io.Writer) error
}
