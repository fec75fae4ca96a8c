package pickup

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/pickup/dto"
)

type UseCase interface {
	ListActive(ctx context.Context) ([]model.PickupLocation, error)
	ListAll(ctx context.Context) ([]model.PickupLocation, error)
	GetLocation(ctx context.Context, id string) (*model.PickupLocation, error)
	// GetActive returns nil, nil for unknown or inactive locations.
	GetActive(ctx context.Context, id string) (*model.PickupLocation, error)
	CreateLocation(ctx context.Context, input *dto.LocationInput) (*model.PickupLocation, error)
	UpdateLocation(ctx context.Context, id string, input *dto.LocationInput) (*model.PickupLocation, error)
	SetActive(ctx context.Context, id string, active bool) error
}
