package outbox

import (
	"context"

	"github.com/fekuna/omnipos-storefront/internal/model"
)

type Repository interface {
	Insert(ctx context.Context, rec *model.OutboxRecord) error
	// FetchPending locks up to limit unsent records for the current
	// transaction, skipping rows another relay already holds.
	FetchPending(ctx context.Context, limit int) ([]model.OutboxRecord, error)
	MarkSent(ctx context.Context, id string) error
	BumpAttempts(ctx context.Context, id string) error
}

// Publisher is the broker side of the relay.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}
