package checkout

import (
	"regexp"
	"strings"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/shopspring/decimal"
)

const (
	LabelFreeShipping = "Free shipping"
	LabelFlatShipping = "Flat rate shipping"
	LabelPickup       = "In-store pickup"
	LabelNoShipping   = "No shipping required"
)

var (
	postalCodeRe = regexp.MustCompile(`^[A-Z]\d[A-Z]\s?\d[A-Z]\d$`)
	phoneStripRe = regexp.MustCompile(`[^\d+]`)
)

// Pricing holds the store-wide money rules.
type Pricing struct {
	TaxRate               decimal.Decimal // 0.05 for 5%
	FlatShipping          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// Price turns a cart snapshot into an order summary. location is the active
// pickup location the shopper selected, or nil. Price has no side effects
// and returns identical totals for identical inputs.
func Price(items []model.CartItem, in dto.QuoteInput, location *model.PickupLocation, p Pricing) (*dto.Summary, error) {
	if len(items) == 0 {
		return nil, apperror.ErrEmptyCart
	}

	s := &dto.Summary{
		Lines:           make([]dto.SummaryLine, 0, len(items)),
		Subtotal:        decimal.Zero,
		TaxableSubtotal: decimal.Zero,
		Shipping:        decimal.Zero,
		Email:           strings.TrimSpace(in.Email),
	}

	for _, it := range items {
		prod := it.Product
		line := dto.SummaryLine{
			ProductID:  prod.ID,
			Name:       prod.Name,
			Type:       prod.Type,
			Taxable:    prod.Taxable,
			UnitPrice:  prod.Price,
			Quantity:   it.Quantity,
			LineTotal:  prod.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
			CartItemID: it.ID,
		}

		switch prod.Type {
		case model.ProductTypePhysical:
			s.RequiresShip = true
		case model.ProductTypeService:
			line.SeatLimited = prod.ServiceSeats != nil
		case model.ProductTypeDigital:
		default:
			v := apperror.NewValidationError()
			v.Add("product_type", "invalid_product")
			return nil, v
		}

		if available, limited := prod.Available(); limited && it.Quantity > available {
			s.Shortfalls = append(s.Shortfalls, dto.Shortfall{
				ProductID: prod.ID,
				Name:      prod.Name,
				Requested: it.Quantity,
				Available: available,
			})
		}

		s.Lines = append(s.Lines, line)
		s.Subtotal = s.Subtotal.Add(line.LineTotal)
		if prod.Taxable {
			s.TaxableSubtotal = s.TaxableSubtotal.Add(line.LineTotal)
		}
	}

	method, err := resolveMethod(s.RequiresShip, in.Method)
	if err != nil {
		return nil, err
	}
	s.Method = method

	switch method {
	case model.FulfillmentShip:
		addr, err := ValidateAddress(in.Address)
		if err != nil {
			return nil, err
		}
		s.Address = addr
		if s.Subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
			s.ShippingLabel = LabelFreeShipping
		} else {
			s.Shipping = p.FlatShipping
			s.ShippingLabel = LabelFlatShipping
		}
	case model.FulfillmentPickup:
		if location == nil || !location.IsActive {
			return nil, apperror.ErrPickupLocationRequired
		}
		s.PickupLocation = location
		s.Address = SnapshotLocation(location)
		s.ShippingLabel = LabelPickup
	default:
		s.ShippingLabel = LabelNoShipping
	}

	s.Tax = s.TaxableSubtotal.Mul(p.TaxRate).RoundBank(2)
	s.Total = s.Subtotal.Add(s.Shipping).Add(s.Tax)
	return s, nil
}

// resolveMethod ignores the requested method for carts with nothing to ship.
// A physical cart submitted without a method ships.
func resolveMethod(requiresShip bool, requested model.FulfillmentMethod) (model.FulfillmentMethod, error) {
	if !requiresShip {
		return model.FulfillmentNone, nil
	}
	switch requested {
	case "":
		return model.FulfillmentShip, nil
	case model.FulfillmentShip, model.FulfillmentPickup:
		return requested, nil
	}
	return "", apperror.ErrInvalidFulfillment
}

// ValidateAddress checks and normalizes a shipping address. Phone and
// address line 2 are optional.
func ValidateAddress(a model.ShippingAddress) (model.ShippingAddress, error) {
	v := apperror.NewValidationError()

	a.Name = strings.TrimSpace(a.Name)
	a.Address1 = strings.TrimSpace(a.Address1)
	a.Address2 = strings.TrimSpace(a.Address2)
	a.City = strings.TrimSpace(a.City)
	a.Province = strings.TrimSpace(a.Province)
	a.PostalCode = strings.ToUpper(strings.TrimSpace(a.PostalCode))
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = "Canada"
	}

	required := []struct{ field, value string }{
		{"ship_name", a.Name},
		{"ship_address1", a.Address1},
		{"ship_city", a.City},
		{"ship_province", a.Province},
		{"ship_postal_code", a.PostalCode},
	}
	for _, r := range required {
		if r.value == "" {
			v.Add(r.field, "field_required")
		}
	}

	if a.PostalCode != "" && !postalCodeRe.MatchString(a.PostalCode) {
		v.Add("ship_postal_code", "invalid_postal_code")
	}
	if phone := strings.TrimSpace(a.Phone); phone != "" {
		cleaned := phoneStripRe.ReplaceAllString(phone, "")
		if len(cleaned) < 7 {
			v.Add("ship_phone", "invalid_phone")
		}
		a.Phone = cleaned
	}

	if err := v.OrNil(); err != nil {
		return a, err
	}
	return a, nil
}

// SnapshotLocation copies a pickup location's address onto the order so
// later edits to the location leave the order untouched.
func SnapshotLocation(l *model.PickupLocation) model.ShippingAddress {
	return model.ShippingAddress{
		Name:       l.Name,
		Phone:      l.Phone,
		Address1:   l.Address1,
		Address2:   l.Address2,
		City:       l.City,
		Province:   l.Province,
		PostalCode: l.PostalCode,
		Country:    l.Country,
	}
}
