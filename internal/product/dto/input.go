package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	CategoryID  string
	Name        string
	Description string
	Price       decimal.Decimal
	Type        string
	IsFeatured  bool
	Taxable     bool

	QuantityInStock int

	DigitalFile string
	DigitalURL  string

	ServiceSeats           *int
	ServiceStartsAt        *time.Time
	ServiceDurationMinutes *int
	ServiceLocation        string

	CreatedBy string
}

type UpdateProductInput struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	Price       decimal.Decimal
	IsActive    bool
	IsFeatured  bool
	Taxable     bool

	DigitalFile string
	DigitalURL  string

	ServiceStartsAt        *time.Time
	ServiceDurationMinutes *int
	ServiceLocation        string
}

type AddImageInput struct {
	ProductID    string
	URL          string
	AltText      string
	DisplayOrder int
	IsMain       bool
}
