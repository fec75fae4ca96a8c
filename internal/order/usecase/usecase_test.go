package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/checkout"
	checkoutdto "github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	"github.com/fekuna/omnipos-storefront/internal/download"
	downloaduc "github.com/fekuna/omnipos-storefront/internal/download/usecase"
	inventoryuc "github.com/fekuna/omnipos-storefront/internal/inventory/usecase"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/order/dto"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	testPricing = checkout.Pricing{
		TaxRate:               decimal.RequireFromString("0.05"),
		FlatShipping:          decimal.RequireFromString("15.00"),
		FreeShippingThreshold: decimal.RequireFromString("100.00"),
	}

	shopper = model.CartOwner{UserID: "u-1", SessionID: "s-1"}
)

type fixture struct {
	store     *memStore
	uc        *orderUseCase
	downloads download.UseCase
	listings  *listingSpy
}

func newFixture() *fixture {
	s := newMemStore()
	log := logger.NewNop()
	listings := &listingSpy{}
	inv := inventoryuc.NewInventoryUseCase(inventoryRepo{s}, s, nil, listings, log)
	dl := downloaduc.NewDownloadUseCase(
		downloadRepo{s},
		download.NewSigner("test-secret", "https://shop.test"),
		downloaduc.Options{TTL: 24 * time.Hour, MaxDownloads: 3, MediaRoot: "/srv/media"},
		nil,
		log,
	)
	uc := NewOrderUseCase(orderRepo{s}, s, inv, dl, cartRepo{s}, outboxRepo{s}, listings, "orders.events", log).(*orderUseCase)
	uc.now = func() time.Time { return fixedNow }
	return &fixture{store: s, uc: uc, downloads: dl, listings: listings}
}

// stock registers p and seeds its stock or seat counter.
func (f *fixture) stock(p model.Product) {
	f.store.products[p.ID] = p
	switch p.Type {
	case model.ProductTypePhysical:
		f.store.counters[counterKey(p.ID, model.CounterStock)] = p.QuantityInStock
	case model.ProductTypeService:
		if p.ServiceSeats != nil {
			f.store.counters[counterKey(p.ID, model.CounterSeats)] = *p.ServiceSeats
		}
	}
}

func (f *fixture) summary(t *testing.T, in checkoutdto.QuoteInput, lines ...model.CartItem) *checkoutdto.Summary {
	t.Helper()
	for _, l := range lines {
		f.store.cart[l.ID] = true
	}
	s, err := checkout.Price(lines, in, nil, testPricing)
	require.NoError(t, err)
	return s
}

func shipTo() checkoutdto.QuoteInput {
	return checkoutdto.QuoteInput{
		Method: model.FulfillmentShip,
		Email:  "shopper@example.com",
		Address: model.ShippingAddress{
			Name: "Ada Lovelace", Address1: "24 Sussex Dr", City: "Ottawa", Province: "ON", PostalCode: "K1M 1M4",
		},
	}
}

func lamp(stock int) model.Product {
	return model.Product{
		BaseModel:       model.BaseModel{ID: "p-lamp"},
		Name:            "Desk Lamp",
		Price:           decimal.RequireFromString("20.00"),
		Type:            model.ProductTypePhysical,
		IsActive:        true,
		Taxable:         true,
		QuantityInStock: stock,
	}
}

func ebook() model.Product {
	file := "ebooks/go.pdf"
	return model.Product{
		BaseModel:   model.BaseModel{ID: "p-ebook"},
		Name:        "Go Handbook",
		Price:       decimal.RequireFromString("10.00"),
		Type:        model.ProductTypeDigital,
		IsActive:    true,
		Taxable:     true,
		DigitalFile: &file,
	}
}

func workshop(seats int) model.Product {
	return model.Product{
		BaseModel:    model.BaseModel{ID: "p-workshop"},
		Name:         "Pottery Workshop",
		Price:        decimal.RequireFromString("45.00"),
		Type:         model.ProductTypeService,
		IsActive:     true,
		Taxable:      true,
		ServiceSeats: &seats,
	}
}

func cartLine(id string, p model.Product, qty int) model.CartItem {
	return model.CartItem{ID: id, ProductID: p.ID, Quantity: qty, Product: &p}
}

func TestCommit_PhysicalAndDigital(t *testing.T) {
	f := newFixture()
	f.stock(lamp(5))
	f.stock(ebook())
	summary := f.summary(t, shipTo(), cartLine("ci-lamp", lamp(5), 2), cartLine("ci-ebook", ebook(), 1))

	o, err := f.uc.Commit(context.Background(), shopper, summary)
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPaid, o.Status)
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, fixedNow, *o.PaidAt)
	assert.Equal(t, "u-1", *o.UserID)
	assert.True(t, decimal.RequireFromString("67.50").Equal(o.Total), o.Total.String())
	assert.Len(t, o.Items, 2)

	assert.Equal(t, 3, f.store.counters[counterKey("p-lamp", model.CounterStock)])
	assert.Equal(t, 1, f.listings.count(), "cached listings still show the old stock")
	require.Len(t, f.store.movements, 1)
	mv := f.store.movements[0]
	assert.Equal(t, model.MovementOrder, mv.MovementType)
	assert.Equal(t, -2, mv.QuantityChange)
	assert.Equal(t, 5, mv.QuantityBefore)
	assert.Equal(t, o.ID, *mv.ReferenceID)

	require.Len(t, o.Downloads, 1)
	dl := o.Downloads[0]
	assert.Equal(t, "p-ebook", dl.ProductID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), dl.ExpiresAt, time.Minute)
	assert.Equal(t, 3, dl.MaxDownloads)
	assert.True(t, strings.HasPrefix(dl.Link, "https://shop.test/downloads/"))

	stored := f.store.orders[o.ID]
	assert.Equal(t, model.OrderStatusPaid, stored.Status)
	assert.Empty(t, f.store.cart)

	require.Len(t, f.store.outbox, 1)
	rec := f.store.outbox[0]
	assert.Equal(t, model.EventOrderPaid, rec.EventType)
	assert.Equal(t, "orders.events", rec.Topic)
	assert.Equal(t, o.ID, rec.Key)

	var payload model.OrderPaidPayload
	require.NoError(t, json.Unmarshal(rec.Payload, &payload))
	assert.Equal(t, "shopper@example.com", payload.Email)
	assert.Equal(t, "67.50", payload.Total)
	require.Len(t, payload.Downloads, 1)
	assert.Equal(t, dl.Link, payload.Downloads[0].URL)
}

func TestCommit_DownloadLinkRedeems(t *testing.T) {
	f := newFixture()
	f.stock(ebook())
	summary := f.summary(t, checkoutdto.QuoteInput{}, cartLine("ci-ebook", ebook(), 2))

	o, err := f.uc.Commit(context.Background(), shopper, summary)
	require.NoError(t, err)
	assert.Equal(t, model.FulfillmentNone, o.FulfillmentMethod)
	require.Len(t, o.Downloads, 2, "one download per purchased unit")

	token := strings.TrimPrefix(o.Downloads[0].Link, "https://shop.test/downloads/")
	delivery, err := f.downloads.Redeem(context.Background(), token, shopper)
	require.NoError(t, err)
	assert.Equal(t, "/srv/media/ebooks/go.pdf", delivery.FilePath)
	assert.Equal(t, "go.pdf", delivery.FileName)
	assert.Equal(t, 1, f.store.downloads[o.Downloads[0].ID].DownloadCount)
}

func TestCommit_NoSeatsLeft(t *testing.T) {
	f := newFixture()
	f.stock(workshop(0))
	summary := f.summary(t, checkoutdto.QuoteInput{}, cartLine("ci-ws", workshop(0), 1))
	require.Len(t, summary.Shortfalls, 1)

	o, err := f.uc.Commit(context.Background(), shopper, summary)
	assert.Nil(t, o)

	var inv *apperror.InsufficientInventoryError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "p-workshop", inv.ProductID)
	assert.Equal(t, "Pottery Workshop", inv.Name)
	assert.Equal(t, 0, inv.Available)

	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.store.items)
	assert.Empty(t, f.store.outbox)
	assert.True(t, f.store.cart["ci-ws"], "cart survives a failed commit")
	assert.Zero(t, f.listings.count())
}

func TestCommit_RollsBackEarlierLines(t *testing.T) {
	f := newFixture()
	f.stock(lamp(5))
	f.stock(workshop(1))
	summary := f.summary(t, shipTo(), cartLine("ci-lamp", lamp(5), 2), cartLine("ci-ws", workshop(1), 2))

	_, err := f.uc.Commit(context.Background(), shopper, summary)
	require.ErrorIs(t, err, apperror.ErrInsufficientInventory)

	assert.Equal(t, 5, f.store.counters[counterKey("p-lamp", model.CounterStock)])
	assert.Equal(t, 1, f.store.counters[counterKey("p-workshop", model.CounterSeats)])
	assert.Empty(t, f.store.movements)
	assert.Empty(t, f.store.orders)
}

func TestCommit_UnlimitedServiceSkipsInventory(t *testing.T) {
	f := newFixture()
	p := workshop(0)
	p.ServiceSeats = nil
	f.stock(p)
	summary := f.summary(t, checkoutdto.QuoteInput{}, cartLine("ci-ws", p, 40))

	o, err := f.uc.Commit(context.Background(), shopper, summary)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, o.Status)
	assert.Empty(t, f.store.movements)
	assert.Empty(t, o.Downloads)
	assert.Zero(t, f.listings.count())
}

func TestCommit_EmptySummary(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Commit(context.Background(), shopper, &checkoutdto.Summary{})
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)

	_, err = f.uc.Commit(context.Background(), shopper, nil)
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)
}

func TestCommit_LastUnitGoesToOneBuyer(t *testing.T) {
	f := newFixture()
	f.stock(lamp(1))

	const buyers = 8
	summaries := make([]*checkoutdto.Summary, buyers)
	for i := range summaries {
		summaries[i] = f.summary(t, shipTo(), cartLine(uuid.New().String(), lamp(1), 1))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		paid     int
		rejected int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(s *checkoutdto.Summary) {
			defer wg.Done()
			_, err := f.uc.Commit(context.Background(), model.CartOwner{SessionID: uuid.New().String()}, s)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				paid++
			case errors.Is(err, apperror.ErrInsufficientInventory):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(summaries[i])
	}
	wg.Wait()

	assert.Equal(t, 1, paid)
	assert.Equal(t, buyers-1, rejected)
	assert.Equal(t, 0, f.store.counters[counterKey("p-lamp", model.CounterStock)])
	assert.Len(t, f.store.orders, 1)
	assert.Len(t, f.store.cart, buyers-1)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	f.stock(lamp(5))
	o, err := f.uc.Commit(context.Background(), shopper, f.summary(t, shipTo(), cartLine("ci-lamp", lamp(5), 1)))
	require.NoError(t, err)
	ctx := context.Background()

	shipped, err := f.uc.UpdateStatus(ctx, &dto.UpdateStatusInput{
		OrderID: o.ID, Status: model.OrderStatusShipped, TrackingNumber: "1Z999", Carrier: model.CarrierUPS,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, shipped.Status)
	require.NotNil(t, shipped.ShippedAt)
	assert.Equal(t, "1Z999", f.store.orders[o.ID].TrackingNumber)
	assert.Equal(t, "ups", f.store.orders[o.ID].ShippingCarrier)

	_, err = f.uc.Cancel(ctx, o.ID)
	var st *apperror.StatusTransitionError
	require.True(t, errors.As(err, &st))
	assert.Equal(t, "shipped", st.From)
	assert.Equal(t, "cancelled", st.To)

	_, err = f.uc.UpdateStatus(ctx, &dto.UpdateStatusInput{OrderID: o.ID, Status: model.OrderStatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, f.store.orders[o.ID].Status)
}

func TestUpdateStatus_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		input dto.UpdateStatusInput
		want  error
	}{
		{"unknown status", dto.UpdateStatusInput{OrderID: uuid.New().String(), Status: "lost"}, apperror.ErrValidation},
		{"unknown carrier", dto.UpdateStatusInput{OrderID: uuid.New().String(), Status: model.OrderStatusShipped, Carrier: "pigeon"}, apperror.ErrValidation},
		{"malformed id", dto.UpdateStatusInput{OrderID: "42", Status: model.OrderStatusShipped}, apperror.ErrNotFound},
		{"missing order", dto.UpdateStatusInput{OrderID: uuid.New().String(), Status: model.OrderStatusShipped}, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := f.uc.UpdateStatus(ctx, &input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// racingRepo cancels the order between the read and the write of a status
// update.
type racingRepo struct{ orderRepo }

func (r racingRepo) UpdateStatus(ctx context.Context, o *model.Order, from model.OrderStatus) (bool, error) {
	r.mu.Lock()
	stored := r.orders[o.ID]
	stored.Status = model.OrderStatusCancelled
	r.orders[o.ID] = stored
	r.mu.Unlock()
	return r.orderRepo.UpdateStatus(ctx, o, from)
}

func TestUpdateStatus_LostRace(t *testing.T) {
	f := newFixture()
	f.stock(lamp(5))
	o, err := f.uc.Commit(context.Background(), shopper, f.summary(t, shipTo(), cartLine("ci-lamp", lamp(5), 1)))
	require.NoError(t, err)

	f.uc.repo = racingRepo{orderRepo{f.store}}
	_, err = f.uc.UpdateStatus(context.Background(), &dto.UpdateStatusInput{OrderID: o.ID, Status: model.OrderStatusShipped})

	var st *apperror.StatusTransitionError
	require.True(t, errors.As(err, &st))
	assert.Equal(t, "cancelled", st.From)
	assert.Equal(t, model.OrderStatusCancelled, f.store.orders[o.ID].Status)
}

func TestCancel_KeepsInventoryConsumed(t *testing.T) {
	f := newFixture()
	f.stock(lamp(5))
	o, err := f.uc.Commit(context.Background(), shopper, f.summary(t, shipTo(), cartLine("ci-lamp", lamp(5), 2)))
	require.NoError(t, err)

	cancelled, err := f.uc.Cancel(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 3, f.store.counters[counterKey("p-lamp", model.CounterStock)])
}

func TestGetOwnedOrder(t *testing.T) {
	f := newFixture()
	f.stock(ebook())
	guest := model.CartOwner{SessionID: "guest-session"}
	o, err := f.uc.Commit(context.Background(), guest, f.summary(t, checkoutdto.QuoteInput{}, cartLine("ci-ebook", ebook(), 1)))
	require.NoError(t, err)

	got, err := f.uc.GetOwnedOrder(context.Background(), o.ID, guest)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	require.Len(t, got.Downloads, 1)
	assert.NotEmpty(t, got.Downloads[0].Link)

	_, err = f.uc.GetOwnedOrder(context.Background(), o.ID, model.CartOwner{SessionID: "someone-else"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestOwnedBy(t *testing.T) {
	user, session := "u-1", "s-1"
	userOrder := &model.Order{UserID: &user, SessionID: &session}
	guestOrder := &model.Order{SessionID: &session}

	tests := []struct {
		name  string
		order *model.Order
		owner model.CartOwner
		want  bool
	}{
		{"user order, same user", userOrder, model.CartOwner{UserID: "u-1"}, true},
		{"user order, same session only", userOrder, model.CartOwner{SessionID: "s-1"}, false},
		{"user order, other user", userOrder, model.CartOwner{UserID: "u-2", SessionID: "s-1"}, false},
		{"guest order, same session", guestOrder, model.CartOwner{SessionID: "s-1"}, true},
		{"guest order, signed in same session", guestOrder, model.CartOwner{UserID: "u-9", SessionID: "s-1"}, true},
		{"guest order, other session", guestOrder, model.CartOwner{SessionID: "s-2"}, false},
		{"guest order, no owner", guestOrder, model.CartOwner{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OwnedBy(tt.order, tt.owner))
		})
	}
}

func TestListMine(t *testing.T) {
	f := newFixture()
	f.stock(lamp(5))
	_, err := f.uc.Commit(context.Background(), shopper, f.summary(t, shipTo(), cartLine("ci-lamp", lamp(5), 2)))
	require.NoError(t, err)

	orders, total, err := f.uc.ListMine(context.Background(), model.CartOwner{UserID: "u-1"}, &dto.ListFilters{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)

	orders, total, err = f.uc.ListMine(context.Background(), model.CartOwner{}, &dto.ListFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
}

func TestExport(t *testing.T) {
	f := newFixture()
	f.stock(lamp(10))
	o, err := f.uc.Commit(context.Background(), shopper, f.summary(t, shipTo(), cartLine("ci-lamp", lamp(10), 3)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.uc.Export(context.Background(), &dto.ExportFilters{Status: model.OrderStatusPaid}, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")), "xlsx is a zip archive")

	stored := f.store.orders[o.ID]
	stored.Items = f.store.items[o.ID]
	file, err := BuildWorkbook([]model.Order{stored})
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	rows := file.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "Order ID", rows[0].Cells[0].Value)
	assert.Equal(t, o.ID, rows[1].Cells[0].Value)
	assert.Equal(t, "paid", rows[1].Cells[2].Value)
	assert.Equal(t, "3", rows[1].Cells[9].Value)
}
