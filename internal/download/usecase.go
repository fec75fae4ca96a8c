package download

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/download/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
)

type UseCase interface {
	// Issue creates one download per purchased digital unit.
	Issue(ctx context.Context, orderID string, items []model.OrderItem) ([]model.DigitalDownload, error)
	ListForOrder(ctx context.Context, orderID string) ([]model.DigitalDownload, error)
	Redeem(ctx context.Context, token string, caller model.CartOwner) (*dto.Delivery, error)
}
