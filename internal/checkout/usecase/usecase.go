package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/checkout"
	"github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/cache"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	idempotencyLockTTL   = 30 * time.Second
	idempotencyResultTTL = 24 * time.Hour
)

type checkoutUseCase struct {
	carts     checkout.CartReader
	locations checkout.LocationReader
	committer checkout.Committer
	pricing   checkout.Pricing
	cache     *cache.RedisClient
	metrics   *metrics.Metrics
	logger    logger.ZapLogger
}

// NewCheckoutUseCase wires checkout. cache and m may be nil; without a cache
// idempotency keys are ignored.
func NewCheckoutUseCase(
	carts checkout.CartReader,
	locations checkout.LocationReader,
	committer checkout.Committer,
	pricing checkout.Pricing,
	cache *cache.RedisClient,
	m *metrics.Metrics,
	log logger.ZapLogger,
) checkout.UseCase {
	return &checkoutUseCase{
		carts:     carts,
		locations: locations,
		committer: committer,
		pricing:   pricing,
		cache:     cache,
		metrics:   m,
		logger:    log,
	}
}

func (uc *checkoutUseCase) Quote(ctx context.Context, owner model.CartOwner, in dto.QuoteInput) (*dto.Summary, error) {
	items, err := uc.carts.Items(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var location *model.PickupLocation
	if in.Method == model.FulfillmentPickup && in.PickupLocationID != "" && needsShipping(items) {
		location, err = uc.locations.GetActive(ctx, in.PickupLocationID)
		if err != nil {
			return nil, fmt.Errorf("load pickup location: %w", err)
		}
	}

	return checkout.Price(items, in, location, uc.pricing)
}

// needsShipping reports whether any line is physical. The pickup location is
// irrelevant otherwise.
func needsShipping(items []model.CartItem) bool {
	for _, it := range items {
		if it.Product != nil && it.Product.RequiresShipping() {
			return true
		}
	}
	return false
}

func (uc *checkoutUseCase) PlaceOrder(ctx context.Context, owner model.CartOwner, in dto.PlaceOrderInput) (*dto.PlaceOrderResult, error) {
	if in.IdempotencyKey == "" || uc.cache == nil {
		return uc.place(ctx, owner, in.QuoteInput)
	}

	scope := owner.UserID
	if scope == "" {
		scope = owner.SessionID
	}
	resultKey := fmt.Sprintf("checkout:result:%s:%s", scope, in.IdempotencyKey)
	lockKey := fmt.Sprintf("checkout:lock:%s:%s", scope, in.IdempotencyKey)

	var prior dto.PlaceOrderResult
	if hit, err := uc.cache.GetJSON(ctx, resultKey, &prior); err == nil && hit {
		prior.Replayed = true
		return &prior, nil
	}

	lockValue := uuid.New().String()
	ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, idempotencyLockTTL)
	if err != nil {
		uc.logger.Warn("idempotency lock unavailable, placing order without it", zap.Error(err))
		return uc.place(ctx, owner, in.QuoteInput)
	}
	if !ok {
		return nil, checkout.ErrInProgress
	}
	defer uc.cache.ReleaseLock(context.Background(), lockKey, lockValue)

	res, err := uc.place(ctx, owner, in.QuoteInput)
	if err != nil {
		return nil, err
	}
	if err := uc.cache.SetJSON(ctx, resultKey, res, idempotencyResultTTL); err != nil {
		uc.logger.Warn("failed to store checkout result", zap.String("order_id", res.OrderID), zap.Error(err))
	}
	return res, nil
}

func (uc *checkoutUseCase) place(ctx context.Context, owner model.CartOwner, in dto.QuoteInput) (*dto.PlaceOrderResult, error) {
	summary, err := uc.Quote(ctx, owner, in)
	if err != nil {
		uc.count("rejected")
		return nil, err
	}

	order, err := uc.committer.Commit(ctx, owner, summary)
	if err != nil {
		if errors.Is(err, apperror.ErrInsufficientInventory) {
			uc.count("insufficient_inventory")
		} else {
			uc.count("error")
		}
		return nil, err
	}

	uc.count("paid")
	uc.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("method", string(order.FulfillmentMethod)),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return &dto.PlaceOrderResult{OrderID: order.ID}, nil
}

func (uc *checkoutUseCase) count(result string) {
	if uc.metrics != nil {
		uc.metrics.Checkouts.WithLabelValues(result).Inc()
	}
}
