package dto

import (
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/shopspring/decimal"
)

type QuoteInput struct {
	Method           model.FulfillmentMethod `json:"fulfillment_method"`
	PickupLocationID string                  `json:"pickup_location_id"`
	Address          model.ShippingAddress   `json:"shipping_address"`
	Email            string                  `json:"email"`
}

type PlaceOrderInput struct {
	QuoteInput
	// IdempotencyKey deduplicates double submits of the same checkout.
	IdempotencyKey string `json:"idempotency_key"`
}

type SummaryLine struct {
	ProductID   string            `json:"product_id"`
	Name        string            `json:"name"`
	Type        model.ProductType `json:"product_type"`
	Taxable     bool              `json:"taxable"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
	Quantity    int               `json:"quantity"`
	LineTotal   decimal.Decimal   `json:"line_total"`
	CartItemID  string            `json:"cart_item_id"`
	SeatLimited bool              `json:"-"`
}

// Shortfall previews a line the current stock or seats cannot cover.
type Shortfall struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Summary is the priced, fulfillment-resolved checkout. It is computed from
// a snapshot of the cart and never mutated after Price returns.
type Summary struct {
	Lines           []SummaryLine           `json:"lines"`
	Subtotal        decimal.Decimal         `json:"subtotal"`
	TaxableSubtotal decimal.Decimal         `json:"taxable_subtotal"`
	Shipping        decimal.Decimal         `json:"shipping"`
	ShippingLabel   string                  `json:"shipping_label"`
	Tax             decimal.Decimal         `json:"tax"`
	Total           decimal.Decimal         `json:"total"`
	Method          model.FulfillmentMethod `json:"fulfillment_method"`
	PickupLocation  *model.PickupLocation   `json:"pickup_location,omitempty"`
	Address         model.ShippingAddress   `json:"shipping_address"`
	Email           string                  `json:"email"`
	RequiresShip    bool                    `json:"requires_shipping"`
	Shortfalls      []Shortfall             `json:"shortfalls,omitempty"`
}

type PlaceOrderResult struct {
	OrderID  string `json:"order_id"`
	Replayed bool   `json:"replayed"`
}
