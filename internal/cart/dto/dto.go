package dto

import (
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/shopspring/decimal"
)

type CartLine struct {
	ProductID        string            `json:"product_id"`
	Name             string            `json:"name"`
	Type             model.ProductType `json:"product_type"`
	UnitPrice        decimal.Decimal   `json:"unit_price"`
	Quantity         int               `json:"quantity"`
	LineTotal        decimal.Decimal   `json:"line_total"`
	AvailabilityText string            `json:"availability_text"`
	ImageURL         string            `json:"image_url,omitempty"`
}

type CartView struct {
	Lines    []CartLine      `json:"lines"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}
