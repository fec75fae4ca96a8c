package model

import (
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type FulfillmentMethod string

const (
	FulfillmentShip   FulfillmentMethod = "ship"
	FulfillmentPickup FulfillmentMethod = "pickup"
	// FulfillmentNone is recorded for carts with nothing to ship.
	FulfillmentNone FulfillmentMethod = "none"
)

type Carrier string

const (
	CarrierCanadaPost Carrier = "canadapost"
	CarrierUPS        Carrier = "ups"
	CarrierFedEx      Carrier = "fedex"
	CarrierDHL        Carrier = "dhl"
	CarrierOther      Carrier = "other"
)

func (c Carrier) Valid() bool {
	switch c {
	case CarrierCanadaPost, CarrierUPS, CarrierFedEx, CarrierDHL, CarrierOther:
		return true
	}
	return false
}

// ShippingAddress is the shopper's address for "ship" orders, or a copy of
// the pickup location's address for "pickup" orders.
type ShippingAddress struct {
	Name       string `db:"ship_name" json:"name"`
	Phone      string `db:"ship_phone" json:"phone"`
	Address1   string `db:"ship_address1" json:"address1"`
	Address2   string `db:"ship_address2" json:"address2"`
	City       string `db:"ship_city" json:"city"`
	Province   string `db:"ship_province" json:"province"`
	PostalCode string `db:"ship_postal_code" json:"postal_code"`
	Country    string `db:"ship_country" json:"country"`
}

type Order struct {
	BaseModel
	UserID            *string           `db:"user_id" json:"user_id,omitempty"`
	SessionID         *string           `db:"session_id" json:"session_id,omitempty"`
	Email             string            `db:"email" json:"email"`
	Status            OrderStatus       `db:"status" json:"status"`
	FulfillmentMethod FulfillmentMethod `db:"fulfillment_method" json:"fulfillment_method"`
	PickupLocationID  *string           `db:"pickup_location_id" json:"pickup_location_id,omitempty"`
	ShippingAddress   `json:"shipping_address"`

	Subtotal decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax      decimal.Decimal `db:"tax" json:"tax"`
	Shipping decimal.Decimal `db:"shipping" json:"shipping"`
	Total    decimal.Decimal `db:"total" json:"total"`

	TrackingNumber  string     `db:"tracking_number" json:"tracking_number,omitempty"`
	ShippingCarrier string     `db:"shipping_carrier" json:"shipping_carrier,omitempty"`
	PaidAt          *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	ShippedAt       *time.Time `db:"shipped_at" json:"shipped_at,omitempty"`

	Items     []OrderItem       `db:"-" json:"items,omitempty"`
	Downloads []DigitalDownload `db:"-" json:"downloads,omitempty"`
}

// TransitionTo moves the order along the status machine and stamps the
// matching timestamp.
func (o *Order) TransitionTo(next OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return &apperror.StatusTransitionError{From: string(o.Status), To: string(next)}
	}
	o.Status = next
	o.UpdatedAt = now
	switch next {
	case OrderStatusPaid:
		o.PaidAt = &now
	case OrderStatusShipped:
		o.ShippedAt = &now
	}
	return nil
}

type OrderItem struct {
	ID          string          `db:"id" json:"id"`
	OrderID     string          `db:"order_id" json:"order_id"`
	ProductID   string          `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	ProductType ProductType     `db:"product_type" json:"product_type"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity    int             `db:"quantity" json:"quantity"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
