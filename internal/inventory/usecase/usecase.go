package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/inventory"
	"github.com/fekuna/omnipos-storefront/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/product"
	"github.com/fekuna/omnipos-storefront/pkg/cache"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo     inventory.Repository
	tx       postgres.Transactor
	cache    *cache.RedisClient
	listings product.ListingInvalidator
	logger   logger.ZapLogger
}

// NewInventoryUseCase builds the ledger. cache may be nil, in which case
// manual adjustments rely on the conditional UPDATE alone. listings may be
// nil when nothing caches catalog pages.
func NewInventoryUseCase(repo inventory.Repository, tx postgres.Transactor, cache *cache.RedisClient, listings product.ListingInvalidator, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:     repo,
		tx:       tx,
		cache:    cache,
		listings: listings,
		logger:   log,
	}
}

func (uc *inventoryUseCase) AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.InventoryMovement, error) {
	v := apperror.NewValidationError()
	if input.ProductID == "" {
		v.Add("product_id", "field_required")
	}
	if input.QuantityChange == 0 {
		v.Add("quantity_change", "invalid_quantity")
	}
	switch input.MovementType {
	case model.MovementRestock, model.MovementAdjust, model.MovementRefund:
	default:
		v.Add("movement_type", "validation_failed")
	}
	if input.Counter != model.CounterStock && input.Counter != model.CounterSeats {
		v.Add("counter", "validation_failed")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		lockKey := fmt.Sprintf("lock:inventory:%s:%s", input.ProductID, input.Counter)
		lockValue := uuid.New().String()

		acquired := false
		for i := 0; i < 3; i++ {
			ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, 5*time.Second)
			if err != nil {
				uc.logger.Error("failed to acquire inventory lock", zap.Error(err))
			}
			if ok {
				acquired = true
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		if !acquired {
			return nil, inventory.ErrBusy
		}
		defer uc.cache.ReleaseLock(context.Background(), lockKey, lockValue)
	}

	var movement *model.InventoryMovement
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		after, ok, err := uc.repo.Adjust(ctx, input.ProductID, input.Counter, input.QuantityChange)
		if err != nil {
			return fmt.Errorf("adjust inventory: %w", err)
		}
		if !ok {
			current, found, err := uc.repo.Current(ctx, input.ProductID, input.Counter)
			if err != nil {
				return err
			}
			if !found {
				return apperror.NotFound("product", input.ProductID)
			}
			return &apperror.InsufficientInventoryError{
				ProductID: input.ProductID,
				Requested: -input.QuantityChange,
				Available: current,
			}
		}

		movement = &model.InventoryMovement{
			ID:             uuid.New().String(),
			ProductID:      input.ProductID,
			Counter:        input.Counter,
			MovementType:   input.MovementType,
			QuantityChange: input.QuantityChange,
			QuantityBefore: after - input.QuantityChange,
			QuantityAfter:  after,
			ReferenceType:  optional(input.ReferenceType),
			ReferenceID:    optional(input.ReferenceID),
			Notes:          optional(input.Reason),
			CreatedBy:      optional(input.UserID),
			CreatedAt:      time.Now(),
		}
		return uc.repo.LogMovement(ctx, movement)
	})
	if err != nil {
		return nil, err
	}
	if uc.listings != nil {
		uc.listings.InvalidateListings(context.WithoutCancel(ctx))
	}

	uc.logger.Info("inventory adjusted",
		zap.String("product_id", input.ProductID),
		zap.String("counter", string(input.Counter)),
		zap.Int("change", input.QuantityChange),
		zap.Int("after", movement.QuantityAfter),
	)
	return movement, nil
}

// ConsumeForOrder joins the caller's transaction, so invalidating listings is
// left to the caller once it commits.
func (uc *inventoryUseCase) ConsumeForOrder(ctx context.Context, orderID string, lines []dto.ConsumeLine) error {
	sorted := make([]dto.ConsumeLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	refType := "order"
	return uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, line := range sorted {
			if line.Quantity <= 0 {
				continue
			}
			after, ok, err := uc.repo.Decrement(ctx, line.ProductID, line.Counter, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement %s: %w", line.ProductID, err)
			}
			if !ok {
				available, _, err := uc.repo.Current(ctx, line.ProductID, line.Counter)
				if err != nil {
					return err
				}
				return &apperror.InsufficientInventoryError{
					ProductID: line.ProductID,
					Name:      line.ProductName,
					Requested: line.Quantity,
					Available: available,
				}
			}

			oid := orderID
			err = uc.repo.LogMovement(ctx, &model.InventoryMovement{
				ID:             uuid.New().String(),
				ProductID:      line.ProductID,
				Counter:        line.Counter,
				MovementType:   model.MovementOrder,
				QuantityChange: -line.Quantity,
				QuantityBefore: after + line.Quantity,
				QuantityAfter:  after,
				ReferenceType:  &refType,
				ReferenceID:    &oid,
				CreatedAt:      time.Now(),
			})
			if err != nil {
				return fmt.Errorf("log movement: %w", err)
			}
		}
		return nil
	})
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Product, int, error) {
	return uc.repo.ListLowStock(ctx, filters)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
