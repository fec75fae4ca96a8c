package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	checkoutdto "github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	invdto "github.com/fekuna/omnipos-storefront/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/order"
	"github.com/fekuna/omnipos-storefront/internal/order/dto"
	"github.com/fekuna/omnipos-storefront/internal/product"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type orderUseCase struct {
	repo      order.Repository
	tx        postgres.Transactor
	inventory order.InventoryConsumer
	downloads order.Downloads
	carts     order.CartCleaner
	outbox    order.OutboxWriter
	listings  product.ListingInvalidator
	topic     string
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewOrderUseCase(
	repo order.Repository,
	tx postgres.Transactor,
	inventory order.InventoryConsumer,
	downloads order.Downloads,
	carts order.CartCleaner,
	outbox order.OutboxWriter,
	listings product.ListingInvalidator,
	topic string,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		repo:      repo,
		tx:        tx,
		inventory: inventory,
		downloads: downloads,
		carts:     carts,
		outbox:    outbox,
		listings:  listings,
		topic:     topic,
		logger:    log,
		now:       time.Now,
	}
}

func (uc *orderUseCase) Commit(ctx context.Context, owner model.CartOwner, summary *checkoutdto.Summary) (*model.Order, error) {
	if summary == nil || len(summary.Lines) == 0 {
		return nil, apperror.ErrEmptyCart
	}

	now := uc.now()
	o := newOrder(owner, summary, now)

	var consume []invdto.ConsumeLine
	cartItemIDs := make([]string, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		switch {
		case line.Type == model.ProductTypePhysical:
			consume = append(consume, invdto.ConsumeLine{
				ProductID: line.ProductID, ProductName: line.Name, Counter: model.CounterStock, Quantity: line.Quantity,
			})
		case line.Type == model.ProductTypeService && line.SeatLimited:
			consume = append(consume, invdto.ConsumeLine{
				ProductID: line.ProductID, ProductName: line.Name, Counter: model.CounterSeats, Quantity: line.Quantity,
			})
		}
		if line.CartItemID != "" {
			cartItemIDs = append(cartItemIDs, line.CartItemID)
		}
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, o); err != nil {
			return err
		}

		if err := uc.inventory.ConsumeForOrder(ctx, o.ID, consume); err != nil {
			return err
		}

		if err := o.TransitionTo(model.OrderStatusPaid, now); err != nil {
			return err
		}
		if _, err := uc.repo.UpdateStatus(ctx, o, model.OrderStatusPending); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		downloads, err := uc.downloads.Issue(ctx, o.ID, o.Items)
		if err != nil {
			return fmt.Errorf("issue downloads: %w", err)
		}
		o.Downloads = downloads

		rec, err := uc.paidEvent(o, now)
		if err != nil {
			return err
		}
		if err := uc.outbox.Insert(ctx, rec); err != nil {
			return fmt.Errorf("write outbox: %w", err)
		}

		return uc.carts.DeleteItems(ctx, cartItemIDs)
	})
	if err != nil {
		return nil, err
	}
	if len(consume) > 0 && uc.listings != nil {
		uc.listings.InvalidateListings(context.WithoutCancel(ctx))
	}

	uc.logger.Info("order committed",
		zap.String("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.Int("downloads", len(o.Downloads)),
	)
	return o, nil
}

func newOrder(owner model.CartOwner, s *checkoutdto.Summary, now time.Time) *model.Order {
	o := &model.Order{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Email:             s.Email,
		Status:            model.OrderStatusPending,
		FulfillmentMethod: s.Method,
		ShippingAddress:   s.Address,
		Subtotal:          s.Subtotal,
		Tax:               s.Tax,
		Shipping:          s.Shipping,
		Total:             s.Total,
	}
	if owner.UserID != "" {
		uid := owner.UserID
		o.UserID = &uid
	}
	if owner.SessionID != "" {
		sid := owner.SessionID
		o.SessionID = &sid
	}
	if s.Method == model.FulfillmentPickup && s.PickupLocation != nil {
		lid := s.PickupLocation.ID
		o.PickupLocationID = &lid
	}

	o.Items = make([]model.OrderItem, len(s.Lines))
	for i, line := range s.Lines {
		o.Items[i] = model.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			ProductType: line.Type,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		}
	}
	return o
}

func (uc *orderUseCase) paidEvent(o *model.Order, now time.Time) (*model.OutboxRecord, error) {
	payload := model.OrderPaidPayload{
		OrderID: o.ID,
		Email:   o.Email,
		Total:   o.Total.StringFixed(2),
		Items:   make([]model.OrderPaidLine, len(o.Items)),
	}
	for i, it := range o.Items {
		payload.Items[i] = model.OrderPaidLine{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductType: it.ProductType,
			Quantity:    it.Quantity,
		}
	}
	for _, d := range o.Downloads {
		payload.Downloads = append(payload.Downloads, model.DownloadLink{
			ProductName: d.ProductName,
			URL:         d.Link,
			ExpiresAt:   d.ExpiresAt,
		})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order paid payload: %w", err)
	}
	return &model.OutboxRecord{
		ID:        uuid.New().String(),
		Topic:     uc.topic,
		Key:       o.ID,
		EventType: model.EventOrderPaid,
		Payload:   raw,
		CreatedAt: now,
	}, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("order", id)
	}
	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperror.NotFound("order", id)
	}

	items, err := uc.repo.ListItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items

	downloads, err := uc.downloads.ListForOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Downloads = downloads
	return o, nil
}

func (uc *orderUseCase) GetOwnedOrder(ctx context.Context, id string, owner model.CartOwner) (*model.Order, error) {
	o, err := uc.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !OwnedBy(o, owner) {
		return nil, apperror.NotFound("order", id)
	}
	return o, nil
}

// OwnedBy reports whether owner placed o. Orders placed while signed in
// belong to the user; guest orders belong to the session.
func OwnedBy(o *model.Order, owner model.CartOwner) bool {
	if o.UserID != nil {
		return owner.UserID == *o.UserID
	}
	return o.SessionID != nil && owner.SessionID != "" && owner.SessionID == *o.SessionID
}

func (uc *orderUseCase) ListMine(ctx context.Context, owner model.CartOwner, filters *dto.ListFilters) ([]model.Order, int, error) {
	if owner.IsZero() {
		return nil, 0, nil
	}
	orders, total, err := uc.repo.ListByOwner(ctx, owner, filters)
	if err != nil {
		return nil, 0, err
	}
	if err := uc.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (uc *orderUseCase) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := uc.repo.ListItems(ctx, ids)
	if err != nil {
		return err
	}
	byOrder := make(map[string][]model.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return nil
}

func (uc *orderUseCase) UpdateStatus(ctx context.Context, input *dto.UpdateStatusInput) (*model.Order, error) {
	if !input.Status.Valid() {
		v := apperror.NewValidationError()
		v.Add("status", "invalid_status")
		return nil, v
	}
	if input.Carrier != "" && !input.Carrier.Valid() {
		v := apperror.NewValidationError()
		v.Add("shipping_carrier", "invalid_carrier")
		return nil, v
	}

	o, err := uc.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if err := o.TransitionTo(input.Status, uc.now()); err != nil {
		return nil, err
	}
	if input.Status == model.OrderStatusShipped {
		if input.TrackingNumber != "" {
			o.TrackingNumber = input.TrackingNumber
		}
		if input.Carrier != "" {
			o.ShippingCarrier = string(input.Carrier)
		}
	}

	ok, err := uc.repo.UpdateStatus(ctx, o, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone else moved the order since it was read.
		current, err := uc.repo.FindByID(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if current != nil {
			from = current.Status
		}
		return nil, &apperror.StatusTransitionError{From: string(from), To: string(input.Status)}
	}

	uc.logger.Info("order status updated",
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)
	return o, nil
}

// Cancel leaves consumed stock and seats as they are; restocking is a manual
// REFUND movement.
func (uc *orderUseCase) Cancel(ctx context.Context, id string) (*model.Order, error) {
	return uc.UpdateStatus(ctx, &dto.UpdateStatusInput{OrderID: id, Status: model.OrderStatusCancelled})
}
