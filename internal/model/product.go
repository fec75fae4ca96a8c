package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypePhysical ProductType = "physical"
	ProductTypeDigital  ProductType = "digital"
	ProductTypeService  ProductType = "service"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypePhysical, ProductTypeDigital, ProductTypeService:
		return true
	}
	return false
}

type Product struct {
	BaseModel
	CategoryID  *string         `db:"category_id" json:"category_id"` // Nullable
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Type        ProductType     `db:"product_type" json:"product_type"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	IsFeatured  bool            `db:"is_featured" json:"is_featured"`
	Taxable     bool            `db:"taxable" json:"taxable"`

	// physical
	QuantityInStock int `db:"quantity_in_stock" json:"quantity_in_stock"`

	// digital: file (relative to the media root) or external URL
	DigitalFile *string `db:"digital_file" json:"digital_file,omitempty"`
	DigitalURL  *string `db:"digital_url" json:"digital_url,omitempty"`

	// service: nil seats means unlimited availability
	ServiceSeats           *int       `db:"service_seats" json:"service_seats"`
	ServiceStartsAt        *time.Time `db:"service_starts_at" json:"service_starts_at,omitempty"`
	ServiceDurationMinutes *int       `db:"service_duration_minutes" json:"service_duration_minutes,omitempty"`
	ServiceLocation        string     `db:"service_location" json:"service_location,omitempty"`

	Images   []ProductImage `db:"-" json:"images,omitempty"`
	Category *Category      `db:"-" json:"category,omitempty"` // Joined data
}

type ProductImage struct {
	ID           string    `db:"id" json:"id"`
	ProductID    string    `db:"product_id" json:"product_id"`
	URL          string    `db:"url" json:"url"`
	AltText      string    `db:"alt_text" json:"alt_text"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	IsMain       bool      `db:"is_main" json:"is_main"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Validate enforces the per-type invariants: exactly one type, no negative
// counters, digital goods carry a file or URL and nothing else does.
func (p *Product) Validate() error {
	v := apperror.NewValidationError()

	if strings.TrimSpace(p.Name) == "" {
		v.Add("name", "field_required")
	}
	if p.Price.IsNegative() {
		v.Add("price", "invalid_product")
	}
	if p.QuantityInStock < 0 {
		v.Add("quantity_in_stock", "invalid_product")
	}
	if p.ServiceSeats != nil && *p.ServiceSeats < 0 {
		v.Add("service_seats", "invalid_product")
	}

	hasDigital := (p.DigitalFile != nil && *p.DigitalFile != "") || (p.DigitalURL != nil && *p.DigitalURL != "")

	switch p.Type {
	case ProductTypePhysical:
		if hasDigital {
			v.Add("digital_file", "invalid_product")
		}
		if p.ServiceSeats != nil {
			v.Add("service_seats", "invalid_product")
		}
	case ProductTypeDigital:
		if !hasDigital {
			v.Add("digital_file", "field_required")
		}
		if p.QuantityInStock != 0 {
			v.Add("quantity_in_stock", "invalid_product")
		}
	case ProductTypeService:
		if hasDigital {
			v.Add("digital_file", "invalid_product")
		}
		if p.QuantityInStock != 0 {
			v.Add("quantity_in_stock", "invalid_product")
		}
	default:
		v.Add("product_type", "invalid_product")
	}
	return v.OrNil()
}

func (p *Product) RequiresShipping() bool {
	return p.Type == ProductTypePhysical
}

// Available returns the counter that bounds a purchase. limited is false for
// digital goods and unlimited services.
func (p *Product) Available() (n int, limited bool) {
	switch p.Type {
	case ProductTypePhysical:
		return p.QuantityInStock, true
	case ProductTypeService:
		if p.ServiceSeats != nil {
			return *p.ServiceSeats, true
		}
	}
	return 0, false
}

func (p *Product) AvailabilityText() string {
	switch p.Type {
	case ProductTypeDigital:
		return "Instant download"
	case ProductTypeService:
		if p.ServiceSeats == nil {
			return "Unlimited seats"
		}
		if *p.ServiceSeats > 0 {
			return fmt.Sprintf("%d seats left", *p.ServiceSeats)
		}
		return "Fully booked"
	default:
		if p.QuantityInStock > 0 {
			return fmt.Sprintf("In stock: %d", p.QuantityInStock)
		}
		return "Out of stock"
	}
}

// MainImageURL prefers the image flagged main, then the first one.
func (p *Product) MainImageURL() string {
	for _, img := range p.Images {
		if img.IsMain {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}
