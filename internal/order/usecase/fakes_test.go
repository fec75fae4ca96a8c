package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/download/dto"
	invdto "github.com/fekuna/omnipos-storefront/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	orderdto "github.com/fekuna/omnipos-storefront/internal/order/dto"
)

// memStore is an in-memory database shared by the fake repositories below.
// WithinTx serializes transactions and rolls the whole store back when fn
// fails, which is enough to observe atomicity of a commit.
type memStore struct {
	mu        sync.Mutex
	orders    map[string]model.Order
	items     map[string][]model.OrderItem
	counters  map[string]int
	movements []model.InventoryMovement
	downloads map[string]model.DigitalDownload
	products  map[string]model.Product
	outbox    []model.OutboxRecord
	cart      map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		orders:    map[string]model.Order{},
		items:     map[string][]model.OrderItem{},
		counters:  map[string]int{},
		downloads: map[string]model.DigitalDownload{},
		products:  map[string]model.Product{},
		cart:      map[string]bool{},
	}
}

type inTxKey struct{}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.clone()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// guard locks the store for calls made outside a transaction.
func (s *memStore) guard(ctx context.Context) func() {
	if ctx.Value(inTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]model.OrderItem(nil), v...)
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	c.movements = append(c.movements, s.movements...)
	for k, v := range s.downloads {
		c.downloads[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	c.outbox = append(c.outbox, s.outbox...)
	for k, v := range s.cart {
		c.cart[k] = v
	}
	return c
}

func (s *memStore) restore(c *memStore) {
	s.orders = c.orders
	s.items = c.items
	s.counters = c.counters
	s.movements = c.movements
	s.downloads = c.downloads
	s.products = c.products
	s.outbox = c.outbox
	s.cart = c.cart
}

func counterKey(productID string, counter model.Counter) string {
	return productID + ":" + string(counter)
}

// order.Repository

type orderRepo struct{ *memStore }

func (r orderRepo) Create(ctx context.Context, o *model.Order) error {
	defer r.guard(ctx)()
	stored := *o
	stored.Items, stored.Downloads = nil, nil
	r.orders[o.ID] = stored
	r.items[o.ID] = append([]model.OrderItem(nil), o.Items...)
	return nil
}

func (r orderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	defer r.guard(ctx)()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r orderRepo) ListItems(ctx context.Context, orderIDs []string) ([]model.OrderItem, error) {
	defer r.guard(ctx)()
	var out []model.OrderItem
	for _, id := range orderIDs {
		out = append(out, r.items[id]...)
	}
	return out, nil
}

func (r orderRepo) ListByOwner(ctx context.Context, owner model.CartOwner, _ *orderdto.ListFilters) ([]model.Order, int, error) {
	defer r.guard(ctx)()
	var out []model.Order
	for _, o := range r.orders {
		if OwnedBy(&o, owner) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r orderRepo) UpdateStatus(ctx context.Context, o *model.Order, from model.OrderStatus) (bool, error) {
	defer r.guard(ctx)()
	stored, ok := r.orders[o.ID]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = o.Status
	stored.TrackingNumber = o.TrackingNumber
	stored.ShippingCarrier = o.ShippingCarrier
	stored.PaidAt = o.PaidAt
	stored.ShippedAt = o.ShippedAt
	stored.UpdatedAt = o.UpdatedAt
	r.orders[o.ID] = stored
	return true, nil
}

func (r orderRepo) ListForExport(ctx context.Context, filters *orderdto.ExportFilters) ([]model.Order, error) {
	defer r.guard(ctx)()
	var out []model.Order
	for _, o := range r.orders {
		if filters.Status != "" && o.Status != filters.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// inventory.Repository

type inventoryRepo struct{ *memStore }

func (r inventoryRepo) Decrement(ctx context.Context, productID string, counter model.Counter, qty int) (int, bool, error) {
	defer r.guard(ctx)()
	cur, ok := r.counters[counterKey(productID, counter)]
	if !ok || cur < qty {
		return 0, false, nil
	}
	r.counters[counterKey(productID, counter)] = cur - qty
	return cur - qty, true, nil
}

func (r inventoryRepo) Adjust(ctx context.Context, productID string, counter model.Counter, delta int) (int, bool, error) {
	defer r.guard(ctx)()
	cur, ok := r.counters[counterKey(productID, counter)]
	if !ok || cur+delta < 0 {
		return 0, false, nil
	}
	r.counters[counterKey(productID, counter)] = cur + delta
	return cur + delta, true, nil
}

func (r inventoryRepo) Current(ctx context.Context, productID string, counter model.Counter) (int, bool, error) {
	defer r.guard(ctx)()
	cur, ok := r.counters[counterKey(productID, counter)]
	return cur, ok, nil
}

func (r inventoryRepo) LogMovement(ctx context.Context, m *model.InventoryMovement) error {
	defer r.guard(ctx)()
	r.movements = append(r.movements, *m)
	return nil
}

func (r inventoryRepo) ListMovements(ctx context.Context, _ *invdto.MovementFilters) ([]model.InventoryMovement, int, error) {
	defer r.guard(ctx)()
	return append([]model.InventoryMovement(nil), r.movements...), len(r.movements), nil
}

func (r inventoryRepo) ListLowStock(context.Context, *invdto.LowStockFilters) ([]model.Product, int, error) {
	return nil, 0, nil
}

// download.Repository

type downloadRepo struct{ *memStore }

func (r downloadRepo) Create(ctx context.Context, d *model.DigitalDownload) error {
	defer r.guard(ctx)()
	r.downloads[d.ID] = *d
	return nil
}

func (r downloadRepo) ListByOrder(ctx context.Context, orderID string) ([]model.DigitalDownload, error) {
	defer r.guard(ctx)()
	var out []model.DigitalDownload
	for _, d := range r.downloads {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r downloadRepo) FindEntitlement(ctx context.Context, id string) (*dto.Entitlement, error) {
	defer r.guard(ctx)()
	d, ok := r.downloads[id]
	if !ok {
		return nil, nil
	}
	e := &dto.Entitlement{DigitalDownload: d}
	if o, ok := r.orders[d.OrderID]; ok {
		e.OrderUserID = o.UserID
	}
	if p, ok := r.products[d.ProductID]; ok {
		e.DigitalFile, e.DigitalURL = p.DigitalFile, p.DigitalURL
	}
	return e, nil
}

func (r downloadRepo) IncrementCount(ctx context.Context, id string, now time.Time) (bool, error) {
	defer r.guard(ctx)()
	d, ok := r.downloads[id]
	if !ok || d.IsExpired(now) || d.LimitReached() {
		return false, nil
	}
	d.DownloadCount++
	r.downloads[id] = d
	return true, nil
}

// product.ListingInvalidator

type listingSpy struct {
	mu    sync.Mutex
	calls int
}

func (l *listingSpy) InvalidateListings(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
}

func (l *listingSpy) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// order.CartCleaner

type cartRepo struct{ *memStore }

func (r cartRepo) DeleteItems(ctx context.Context, ids []string) error {
	defer r.guard(ctx)()
	for _, id := range ids {
		delete(r.cart, id)
	}
	return nil
}

// order.OutboxWriter

type outboxRepo struct{ *memStore }

func (r outboxRepo) Insert(ctx context.Context, rec *model.OutboxRecord) error {
	defer r.guard(ctx)()
	r.outbox = append(r.outbox, *rec)
	return nil
}
