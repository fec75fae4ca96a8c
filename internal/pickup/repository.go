package pickup

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/model"
)

type Repository interface {
	Create(ctx context.Context, location *model.PickupLocation) error
	FindByID(ctx context.Context, id string) (*model.PickupLocation, error)
	// FindAll orders by display_order then name.
	FindAll(ctx context.Context, activeOnly bool) ([]model.PickupLocation, error)
	Update(ctx context.Context, location *model.PickupLocation) error
	SetActive(ctx context.Context, id string, active bool) error
}
