package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/checkout"
	"github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/cache"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCarts struct {
	items []model.CartItem
	err   error
}

func (f *fakeCarts) Items(context.Context, model.CartOwner) ([]model.CartItem, error) {
	return f.items, f.err
}

type fakeLocations struct {
	byID  map[string]*model.PickupLocation
	err   error
	calls int
}

func (f *fakeLocations) GetActive(_ context.Context, id string) (*model.PickupLocation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

type fakeCommitter struct {
	mu      sync.Mutex
	err     error
	commits int
	last    *dto.Summary
}

func (f *fakeCommitter) Commit(_ context.Context, owner model.CartOwner, s *dto.Summary) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	f.last = s
	if f.err != nil {
		return nil, f.err
	}
	return &model.Order{
		BaseModel:         model.BaseModel{ID: uuid.New().String()},
		Status:            model.OrderStatusPaid,
		FulfillmentMethod: s.Method,
		Total:             s.Total,
	}, nil
}

var testPricing = checkout.Pricing{
	TaxRate:               decimal.RequireFromString("0.05"),
	FlatShipping:          decimal.RequireFromString("15.00"),
	FreeShippingThreshold: decimal.RequireFromString("100.00"),
}

func shirtCart() []model.CartItem {
	p := &model.Product{
		BaseModel:       model.BaseModel{ID: "p-shirt"},
		Name:            "Shirt",
		Price:           decimal.RequireFromString("25.00"),
		Type:            model.ProductTypePhysical,
		IsActive:        true,
		Taxable:         true,
		QuantityInStock: 10,
	}
	return []model.CartItem{{ID: "ci-1", ProductID: p.ID, Quantity: 2, Product: p}}
}

func newTestUseCase(carts *fakeCarts, locs *fakeLocations, c *fakeCommitter, rc *cache.RedisClient) (checkout.UseCase, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry(), "test")
	return NewCheckoutUseCase(carts, locs, c, testPricing, rc, m, logger.NewNop()), m
}

func TestQuote_LoadsLocationOnlyForPickup(t *testing.T) {
	locs := &fakeLocations{byID: map[string]*model.PickupLocation{
		"loc-1": {BaseModel: model.BaseModel{ID: "loc-1"}, Name: "Depot", IsActive: true},
	}}
	uc, _ := newTestUseCase(&fakeCarts{items: shirtCart()}, locs, &fakeCommitter{}, nil)
	owner := model.CartOwner{SessionID: "s-1"}

	s, err := uc.Quote(context.Background(), owner, dto.QuoteInput{Method: model.FulfillmentPickup, PickupLocationID: "loc-1"})
	require.NoError(t, err)
	assert.Equal(t, "Depot", s.Address.Name)
	assert.Equal(t, 1, locs.calls)

	_, err = uc.Quote(context.Background(), owner, dto.QuoteInput{Method: model.FulfillmentPickup})
	assert.ErrorIs(t, err, apperror.ErrPickupLocationRequired)
	assert.Equal(t, 1, locs.calls)
}

func TestQuote_NothingToShipSkipsLocation(t *testing.T) {
	ebook := &model.Product{
		BaseModel: model.BaseModel{ID: "p-ebook"},
		Name:      "Field Guide",
		Price:     decimal.RequireFromString("10.00"),
		Type:      model.ProductTypeDigital,
		IsActive:  true,
	}
	carts := &fakeCarts{items: []model.CartItem{{ID: "ci-1", ProductID: ebook.ID, Quantity: 1, Product: ebook}}}
	locs := &fakeLocations{err: errors.New("db down")}
	uc, _ := newTestUseCase(carts, locs, &fakeCommitter{}, nil)

	s, err := uc.Quote(context.Background(), model.CartOwner{SessionID: "s-1"}, dto.QuoteInput{Method: model.FulfillmentPickup, PickupLocationID: "loc-1"})
	require.NoError(t, err)
	assert.Equal(t, model.FulfillmentNone, s.Method)
	assert.Zero(t, locs.calls)
}

func TestQuote_LocationError(t *testing.T) {
	boom := errors.New("db down")
	uc, _ := newTestUseCase(&fakeCarts{items: shirtCart()}, &fakeLocations{err: boom}, &fakeCommitter{}, nil)

	_, err := uc.Quote(context.Background(), model.CartOwner{SessionID: "s-1"}, dto.QuoteInput{Method: model.FulfillmentPickup, PickupLocationID: "loc-1"})
	assert.ErrorIs(t, err, boom)
}

func TestQuote_CartError(t *testing.T) {
	boom := errors.New("db down")
	uc, _ := newTestUseCase(&fakeCarts{err: boom}, &fakeLocations{}, &fakeCommitter{}, nil)

	_, err := uc.Quote(context.Background(), model.CartOwner{UserID: "u-1"}, dto.QuoteInput{})
	assert.ErrorIs(t, err, boom)
}

func TestPlaceOrder(t *testing.T) {
	pickup := dto.PlaceOrderInput{QuoteInput: dto.QuoteInput{Method: model.FulfillmentPickup, PickupLocationID: "loc-1"}}
	locs := func() *fakeLocations {
		return &fakeLocations{byID: map[string]*model.PickupLocation{
			"loc-1": {BaseModel: model.BaseModel{ID: "loc-1"}, Name: "Depot", IsActive: true},
		}}
	}

	t.Run("paid", func(t *testing.T) {
		c := &fakeCommitter{}
		uc, m := newTestUseCase(&fakeCarts{items: shirtCart()}, locs(), c, nil)

		res, err := uc.PlaceOrder(context.Background(), model.CartOwner{UserID: "u-1"}, pickup)
		require.NoError(t, err)
		assert.NotEmpty(t, res.OrderID)
		assert.False(t, res.Replayed)
		assert.Equal(t, 1, c.commits)
		assert.True(t, decimal.RequireFromString("52.50").Equal(c.last.Total))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("paid")))
	})

	t.Run("rejected before commit", func(t *testing.T) {
		c := &fakeCommitter{}
		uc, m := newTestUseCase(&fakeCarts{}, locs(), c, nil)

		_, err := uc.PlaceOrder(context.Background(), model.CartOwner{UserID: "u-1"}, pickup)
		assert.ErrorIs(t, err, apperror.ErrEmptyCart)
		assert.Zero(t, c.commits)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("rejected")))
	})

	t.Run("insufficient inventory at commit", func(t *testing.T) {
		c := &fakeCommitter{err: &apperror.InsufficientInventoryError{ProductID: "p-shirt", Name: "Shirt", Requested: 2}}
		uc, m := newTestUseCase(&fakeCarts{items: shirtCart()}, locs(), c, nil)

		_, err := uc.PlaceOrder(context.Background(), model.CartOwner{UserID: "u-1"}, pickup)
		assert.ErrorIs(t, err, apperror.ErrInsufficientInventory)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("insufficient_inventory")))
	})

	t.Run("key ignored without cache", func(t *testing.T) {
		c := &fakeCommitter{}
		uc, _ := newTestUseCase(&fakeCarts{items: shirtCart()}, locs(), c, nil)
		in := pickup
		in.IdempotencyKey = "k-1"

		first, err := uc.PlaceOrder(context.Background(), model.CartOwner{UserID: "u-1"}, in)
		require.NoError(t, err)
		second, err := uc.PlaceOrder(context.Background(), model.CartOwner{UserID: "u-1"}, in)
		require.NoError(t, err)
		assert.NotEqual(t, first.OrderID, second.OrderID)
		assert.Equal(t, 2, c.commits)
	})
}

// Needs a live Redis; set TEST_REDIS_ADDR to run.
func TestPlaceOrder_IdempotencyKeyReplays(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rc, err := cache.NewRedisClient(&cache.Config{Addr: addr})
	require.NoError(t, err)
	defer rc.Close()

	c := &fakeCommitter{}
	locs := &fakeLocations{byID: map[string]*model.PickupLocation{
		"loc-1": {BaseModel: model.BaseModel{ID: "loc-1"}, IsActive: true},
	}}
	uc, _ := newTestUseCase(&fakeCarts{items: shirtCart()}, locs, c, rc)
	owner := model.CartOwner{SessionID: uuid.New().String()}
	in := dto.PlaceOrderInput{
		QuoteInput:     dto.QuoteInput{Method: model.FulfillmentPickup, PickupLocationID: "loc-1"},
		IdempotencyKey: uuid.New().String(),
	}

	first, err := uc.PlaceOrder(context.Background(), owner, in)
	require.NoError(t, err)
	second, err := uc.PlaceOrder(context.Background(), owner, in)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.True(t, second.Replayed)
	assert.Equal(t, 1, c.commits)
}
