package order

import (
	"context"

	invdto "github.com/fekuna/omnipos-storefront/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/order/dto"
)

type Repository interface {
	// Create inserts the order row and its items.
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	ListItems(ctx context.Context, orderIDs []string) ([]model.OrderItem, error)
	ListByOwner(ctx context.Context, owner model.CartOwner, filters *dto.ListFilters) ([]model.Order, int, error)
	// UpdateStatus writes status and tracking data only when the stored
	// status still equals from. ok is false when another writer got there first.
	UpdateStatus(ctx context.Context, o *model.Order, from model.OrderStatus) (ok bool, err error)
	ListForExport(ctx context.Context, filters *dto.ExportFilters) ([]model.Order, error)
}

// InventoryConsumer draws down stock and seats inside the commit transaction.
type InventoryConsumer interface {
	ConsumeForOrder(ctx context.Context, orderID string, lines []invdto.ConsumeLine) error
}

// Downloads issues and lists the download entitlements of an order.
type Downloads interface {
	Issue(ctx context.Context, orderID string, items []model.OrderItem) ([]model.DigitalDownload, error)
	ListForOrder(ctx context.Context, orderID string) ([]model.DigitalDownload, error)
}

type CartCleaner interface {
	DeleteItems(ctx context.Context, ids []string) error
}

type OutboxWriter interface {
	Insert(ctx context.Context, rec *model.OutboxRecord) error
}
