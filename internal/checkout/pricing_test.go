package checkout_test

import (
	"errors"
	"testing"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/checkout"
	"github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pricing = checkout.Pricing{
	TaxRate:               decimal.RequireFromString("0.05"),
	FlatShipping:          decimal.RequireFromString("15.00"),
	FreeShippingThreshold: decimal.RequireFromString("100.00"),
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intp(n int) *int { return &n }

func strp(s string) *string { return &s }

func physical(id, price string, stock int) *model.Product {
	return &model.Product{
		BaseModel:       model.BaseModel{ID: id},
		Name:            "Physical " + id,
		Price:           dec(price),
		Type:            model.ProductTypePhysical,
		IsActive:        true,
		Taxable:         true,
		QuantityInStock: stock,
	}
}

func digital(id, price string) *model.Product {
	return &model.Product{
		BaseModel:   model.BaseModel{ID: id},
		Name:        "Digital " + id,
		Price:       dec(price),
		Type:        model.ProductTypeDigital,
		IsActive:    true,
		Taxable:     true,
		DigitalFile: strp("ebooks/" + id + ".pdf"),
	}
}

func service(id, price string, seats *int) *model.Product {
	return &model.Product{
		BaseModel:    model.BaseModel{ID: id},
		Name:         "Service " + id,
		Price:        dec(price),
		Type:         model.ProductTypeService,
		IsActive:     true,
		Taxable:      true,
		ServiceSeats: seats,
	}
}

func line(p *model.Product, qty int) model.CartItem {
	return model.CartItem{ID: "ci-" + p.ID, ProductID: p.ID, Quantity: qty, Product: p}
}

func validAddress() model.ShippingAddress {
	return model.ShippingAddress{
		Name:       "Ada Lovelace",
		Phone:      "(613) 555-0199",
		Address1:   "24 Sussex Dr",
		City:       "Ottawa",
		Province:   "ON",
		PostalCode: "k1m 1m4",
	}
}

func TestPrice_ShipBelowThreshold(t *testing.T) {
	items := []model.CartItem{
		line(physical("a", "20.00", 5), 2),
		line(digital("b", "10.00"), 1),
	}

	s, err := checkout.Price(items, dto.QuoteInput{Method: model.FulfillmentShip, Address: validAddress()}, nil, pricing)
	require.NoError(t, err)

	assert.Equal(t, model.FulfillmentShip, s.Method)
	assert.True(t, s.RequiresShip)
	assert.True(t, dec("50.00").Equal(s.Subtotal), s.Subtotal.String())
	assert.True(t, dec("15.00").Equal(s.Shipping), s.Shipping.String())
	assert.True(t, dec("2.50").Equal(s.Tax), s.Tax.String())
	assert.True(t, dec("67.50").Equal(s.Total), s.Total.String())
	assert.Equal(t, checkout.LabelFlatShipping, s.ShippingLabel)
	assert.Equal(t, "K1M 1M4", s.Address.PostalCode)
	assert.Equal(t, "Canada", s.Address.Country)
	assert.Empty(t, s.Shortfalls)
}

func TestPrice_ShipAtThresholdIsFree(t *testing.T) {
	items := []model.CartItem{line(physical("a", "50.00", 5), 2)}

	s, err := checkout.Price(items, dto.QuoteInput{Method: model.FulfillmentShip, Address: validAddress()}, nil, pricing)
	require.NoError(t, err)

	assert.True(t, s.Shipping.IsZero())
	assert.Equal(t, checkout.LabelFreeShipping, s.ShippingLabel)
	assert.True(t, dec("105.00").Equal(s.Total), s.Total.String())
}

func TestPrice_NothingToShip(t *testing.T) {
	items := []model.CartItem{
		line(digital("b", "10.00"), 1),
		line(service("c", "40.00", nil), 1),
	}

	// The requested method is ignored when nothing needs shipping.
	s, err := checkout.Price(items, dto.QuoteInput{Method: "teleport"}, nil, pricing)
	require.NoError(t, err)

	assert.Equal(t, model.FulfillmentNone, s.Method)
	assert.False(t, s.RequiresShip)
	assert.True(t, s.Shipping.IsZero())
	assert.Equal(t, checkout.LabelNoShipping, s.ShippingLabel)
	assert.True(t, dec("52.50").Equal(s.Total), s.Total.String())
}

func TestPrice_Pickup(t *testing.T) {
	items := []model.CartItem{line(physical("a", "20.00", 5), 1)}
	loc := &model.PickupLocation{
		BaseModel:  model.BaseModel{ID: "loc-1"},
		Name:       "Downtown",
		Address1:   "1 Main St",
		City:       "Ottawa",
		Province:   "ON",
		PostalCode: "K1P 1A1",
		Country:    "Canada",
		IsActive:   true,
	}

	t.Run("active location", func(t *testing.T) {
		s, err := checkout.Price(items, dto.QuoteInput{Method: model.FulfillmentPickup}, loc, pricing)
		require.NoError(t, err)
		assert.True(t, s.Shipping.IsZero())
		assert.Equal(t, checkout.LabelPickup, s.ShippingLabel)
		assert.Equal(t, "Downtown", s.Address.Name)
		assert.Equal(t, "1 Main St", s.Address.Address1)
		assert.Same(t, loc, s.PickupLocation)
	})

	t.Run("no location", func(t *testing.T) {
		_, err := checkout.Price(items, dto.QuoteInput{Method: model.FulfillmentPickup}, nil, pricing)
		assert.ErrorIs(t, err, apperror.ErrPickupLocationRequired)
	})

	t.Run("inactive location", func(t *testing.T) {
		inactive := *loc
		inactive.IsActive = false
		_, err := checkout.Price(items, dto.QuoteInput{Method: model.FulfillmentPickup}, &inactive, pricing)
		assert.ErrorIs(t, err, apperror.ErrPickupLocationRequired)
	})
}

func TestPrice_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		items []model.CartItem
		in    dto.QuoteInput
		want  error
	}{
		{"empty cart", nil, dto.QuoteInput{Method: model.FulfillmentShip}, apperror.ErrEmptyCart},
		{"unknown method", []model.CartItem{line(physical("a", "5.00", 1), 1)}, dto.QuoteInput{Method: "drone"}, apperror.ErrInvalidFulfillment},
		{"incomplete address", []model.CartItem{line(physical("a", "5.00", 1), 1)}, dto.QuoteInput{Method: model.FulfillmentShip}, apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := checkout.Price(tt.items, tt.in, nil, pricing)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrice_MissingMethodShips(t *testing.T) {
	s, err := checkout.Price([]model.CartItem{line(physical("a", "20.00", 5), 1)}, dto.QuoteInput{Address: validAddress()}, nil, pricing)
	require.NoError(t, err)
	assert.Equal(t, model.FulfillmentShip, s.Method)
	assert.True(t, dec("15.00").Equal(s.Shipping), s.Shipping.String())

	_, err = checkout.Price([]model.CartItem{line(physical("a", "20.00", 5), 1)}, dto.QuoteInput{}, nil, pricing)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	s, err = checkout.Price([]model.CartItem{line(digital("b", "9.00"), 1)}, dto.QuoteInput{}, nil, pricing)
	require.NoError(t, err)
	assert.Equal(t, model.FulfillmentNone, s.Method)
}

func TestPrice_UnknownProductType(t *testing.T) {
	p := physical("x", "1.00", 1)
	p.Type = "gift-card"

	_, err := checkout.Price([]model.CartItem{line(p, 1)}, dto.QuoteInput{}, nil, pricing)

	var verr *apperror.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid_product", verr.Fields["product_type"])
}

func TestPrice_Shortfalls(t *testing.T) {
	items := []model.CartItem{
		line(physical("a", "5.00", 1), 3),
		line(service("c", "40.00", intp(0)), 1),
		line(service("d", "40.00", nil), 50),
	}

	s, err := checkout.Price(items, dto.QuoteInput{Method: model.FulfillmentShip, Address: validAddress()}, nil, pricing)
	require.NoError(t, err)

	require.Len(t, s.Shortfalls, 2)
	assert.Equal(t, dto.Shortfall{ProductID: "a", Name: "Physical a", Requested: 3, Available: 1}, s.Shortfalls[0])
	assert.Equal(t, "c", s.Shortfalls[1].ProductID)
	assert.True(t, s.Lines[1].SeatLimited)
	assert.False(t, s.Lines[2].SeatLimited)
}

func TestPrice_TaxOnlyOnTaxableLines(t *testing.T) {
	exempt := digital("b", "30.00")
	exempt.Taxable = false
	items := []model.CartItem{line(physical("a", "10.10", 5), 1), line(exempt, 1)}

	s, err := checkout.Price(items, dto.QuoteInput{Method: model.FulfillmentShip, Address: validAddress()}, nil, pricing)
	require.NoError(t, err)

	assert.True(t, dec("10.10").Equal(s.TaxableSubtotal))
	// 0.505 rounds half to even.
	assert.True(t, dec("0.50").Equal(s.Tax), s.Tax.String())
}

func TestPrice_Deterministic(t *testing.T) {
	items := []model.CartItem{line(physical("a", "19.99", 9), 3), line(digital("b", "4.49"), 2)}
	in := dto.QuoteInput{Method: model.FulfillmentShip, Address: validAddress(), Email: " shopper@example.com "}

	first, err := checkout.Price(items, in, nil, pricing)
	require.NoError(t, err)
	second, err := checkout.Price(items, in, nil, pricing)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "shopper@example.com", first.Email)
	assert.Equal(t, 9, items[0].Product.QuantityInStock)
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.ShippingAddress)
		fields map[string]string
	}{
		{"valid", func(*model.ShippingAddress) {}, nil},
		{"postal code without space", func(a *model.ShippingAddress) { a.PostalCode = "K1M1M4" }, nil},
		{"no phone", func(a *model.ShippingAddress) { a.Phone = "" }, nil},
		{"bad postal code", func(a *model.ShippingAddress) { a.PostalCode = "90210" }, map[string]string{"ship_postal_code": "invalid_postal_code"}},
		{"short phone", func(a *model.ShippingAddress) { a.Phone = "555-12" }, map[string]string{"ship_phone": "invalid_phone"}},
		{"blank fields", func(a *model.ShippingAddress) {
			a.Name = "  "
			a.City = ""
		}, map[string]string{"ship_name": "field_required", "ship_city": "field_required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAddress()
			tt.mutate(&a)

			got, err := checkout.ValidateAddress(a)
			if tt.fields == nil {
				require.NoError(t, err)
				assert.NotContains(t, got.Phone, " ")
				return
			}
			var verr *apperror.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.fields, verr.Fields)
		})
	}
}
