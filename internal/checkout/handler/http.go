package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/checkout"
	"github.com/fekuna/omnipos-storefront/internal/checkout/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// CheckoutForm is the storefront checkout submission, accepted as a form
// post or as JSON.
type CheckoutForm struct {
	FulfillmentMethod string `form:"fulfillment_method" json:"fulfillment_method"`
	PickupLocationID  string `form:"pickup_location_id" json:"pickup_location_id"`
	Email             string `form:"email" json:"email"`
	ShipName          string `form:"ship_name" json:"ship_name"`
	ShipPhone         string `form:"ship_phone" json:"ship_phone"`
	ShipAddress1      string `form:"ship_address1" json:"ship_address1"`
	ShipAddress2      string `form:"ship_address2" json:"ship_address2"`
	ShipCity          string `form:"ship_city" json:"ship_city"`
	ShipProvince      string `form:"ship_province" json:"ship_province"`
	ShipPostalCode    string `form:"ship_postal_code" json:"ship_postal_code"`
	ShipCountry       string `form:"ship_country" json:"ship_country"`
	IdempotencyKey    string `form:"idempotency_key" json:"idempotency_key"`
}

func (f *CheckoutForm) Input() dto.PlaceOrderInput {
	return dto.PlaceOrderInput{
		QuoteInput: dto.QuoteInput{
			Method:           model.FulfillmentMethod(f.FulfillmentMethod),
			PickupLocationID: f.PickupLocationID,
			Email:            f.Email,
			Address: model.ShippingAddress{
				Name:       f.ShipName,
				Phone:      f.ShipPhone,
				Address1:   f.ShipAddress1,
				Address2:   f.ShipAddress2,
				City:       f.ShipCity,
				Province:   f.ShipProvince,
				PostalCode: f.ShipPostalCode,
				Country:    f.ShipCountry,
			},
		},
		IdempotencyKey: f.IdempotencyKey,
	}
}

func (h *CheckoutHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/checkout", h.Submit)
}

// Submit places the order and answers 303 to its confirmation page, or 422
// with the form errors to re-display.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	lang := c.GetHeader("Accept-Language")

	var form CheckoutForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if form.IdempotencyKey == "" {
		form.IdempotencyKey = c.GetHeader(HeaderIdempotencyKey)
	}

	id := auth.FromContext(ctx)
	if id.Owner().IsZero() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "a session or sign in is required"})
		return
	}
	in := form.Input()
	if in.Email == "" {
		in.Email = id.Email
	}

	res, err := h.uc.PlaceOrder(ctx, id.Owner(), in)
	if err != nil {
		if errors.Is(err, checkout.ErrInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		code := apperror.HTTPStatus(err)
		if code == http.StatusInternalServerError {
			h.logger.Error("checkout failed", zap.Error(err))
		}
		body := gin.H{"error": apperror.Localize(lang, err)}
		if fields := apperror.FieldErrors(lang, err); fields != nil {
			body["fields"] = fields
		}
		c.JSON(code, body)
		return
	}

	c.Redirect(http.StatusSeeOther, "/orders/"+res.OrderID+"/confirmation")
}
