package download

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/download/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
)

type Repository interface {
	Create(ctx context.Context, d *model.DigitalDownload) error
	ListByOrder(ctx context.Context, orderID string) ([]model.DigitalDownload, error)
	FindEntitlement(ctx context.Context, id string) (*dto.Entitlement, error)
	// IncrementCount bumps download_count unless the download expired at now
	// or reached its limit. ok is false when nothing was updated.
	IncrementCount(ctx context.Context, id string, now time.Time) (ok bool, err error)
}
