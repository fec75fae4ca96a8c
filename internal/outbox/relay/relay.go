package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/outbox"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"go.uber.org/zap"
)

// Relay publishes committed outbox records to the broker. Delivery is at
// least once; consumers dedupe on event_id.
type Relay struct {
	repo      outbox.Repository
	tx        postgres.Transactor
	publisher outbox.Publisher
	interval  time.Duration
	batch     int
	logger    logger.ZapLogger
}

func NewRelay(repo outbox.Repository, tx postgres.Transactor, publisher outbox.Publisher, interval time.Duration, batch int, log logger.ZapLogger) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Relay{
		repo:      repo,
		tx:        tx,
		publisher: publisher,
		interval:  interval,
		batch:     batch,
		logger:    log,
	}
}

func (r *Relay) Start(ctx context.Context) {
	r.logger.Info("Starting outbox relay", zap.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping outbox relay")
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox flush failed", zap.Error(err))
			}
		}
	}
}

// Flush publishes one batch and returns how many records were sent. A record
// that fails to publish stays pending with its attempt count bumped.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	sent := 0
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		records, err := r.repo.FetchPending(ctx, r.batch)
		if err != nil {
			return fmt.Errorf("fetch pending: %w", err)
		}

		for _, rec := range records {
			msg, err := Envelope(rec)
			if err != nil {
				return err
			}
			if err := r.publisher.Publish(ctx, rec.Topic, rec.Key, msg); err != nil {
				r.logger.Warn("failed to publish outbox record",
					zap.String("id", rec.ID),
					zap.String("topic", rec.Topic),
					zap.Int("attempts", rec.Attempts+1),
					zap.Error(err),
				)
				if err := r.repo.BumpAttempts(ctx, rec.ID); err != nil {
					return err
				}
				continue
			}
			if err := r.repo.MarkSent(ctx, rec.ID); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	return sent, err
}

// Envelope wraps a record in the broker event format.
func Envelope(rec model.OutboxRecord) ([]byte, error) {
	msg, err := json.Marshal(model.Event{
		EventID:   rec.ID,
		EventType: rec.EventType,
		Payload:   json.RawMessage(rec.Payload),
		Timestamp: rec.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", rec.ID, err)
	}
	return msg, nil
}
