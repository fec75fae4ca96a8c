package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/notification"
	"github.com/fekuna/omnipos-storefront/pkg/cache"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const dedupeTTL = 7 * 24 * time.Hour

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// OrderListener mails download links when an order is paid.
type OrderListener struct {
	consumer MessageReader
	mailer   notification.Mailer
	cache    *cache.RedisClient
	logger   logger.ZapLogger
}

// NewOrderListener builds the listener. cache may be nil, in which case a
// redelivered event is mailed again.
func NewOrderListener(consumer MessageReader, mailer notification.Mailer, cache *cache.RedisClient, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		mailer:   mailer,
		cache:    cache,
		logger:   logger,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting order notification listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping order notification listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.Handle(ctx, msg.Value)
		}
	}
}

// Handle processes one raw event. Malformed or unrelated events are dropped.
func (l *OrderListener) Handle(ctx context.Context, value []byte) {
	var event model.Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if event.EventType != model.EventOrderPaid {
		return
	}

	var payload model.OrderPaidPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		l.logger.Error("Failed to unmarshal order paid payload", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}

	msg, ok := notification.DownloadsEmail(payload)
	if !ok {
		return
	}

	dedupeKey := "notification:sent:" + event.EventID
	if l.cache != nil && event.EventID != "" {
		first, err := l.cache.AcquireLock(ctx, dedupeKey, "1", dedupeTTL)
		if err == nil && !first {
			l.logger.Debug("Skipping already mailed event", zap.String("event_id", event.EventID))
			return
		}
	}

	if err := l.mailer.Send(ctx, msg); err != nil {
		// The order is already paid; the links stay visible on the order page.
		l.logger.Error("Failed to send download email",
			zap.String("order_id", payload.OrderID),
			zap.Error(err),
		)
		if l.cache != nil && event.EventID != "" {
			_ = l.cache.ReleaseLock(ctx, dedupeKey, "1")
		}
		return
	}
	l.logger.Info("Download email sent",
		zap.String("order_id", payload.OrderID),
		zap.Int("links", len(payload.Downloads)),
	)
}
