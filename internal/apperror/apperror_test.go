package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestHTTPStatus(t *testing.T) {
	v := NewValidationError()
	v.Add("ship_city", "field_required")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired", ErrExpiredToken, http.StatusGone},
		{"limit", ErrDownloadLimitReached, http.StatusGone},
		{"invalid token", fmt.Errorf("wrapped: %w", ErrInvalidToken), http.StatusNotFound},
		{"not found", NotFound("order", "1"), http.StatusNotFound},
		{"transition", &StatusTransitionError{From: "paid", To: "pending"}, http.StatusConflict},
		{"validation", v, http.StatusUnprocessableEntity},
		{"inventory", &InsufficientInventoryError{Name: "Mug"}, http.StatusUnprocessableEntity},
		{"empty cart", ErrEmptyCart, http.StatusUnprocessableEntity},
		{"internal", errors.New("db timeout"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestLocalize(t *testing.T) {
	err := &InsufficientInventoryError{Name: "Mug", Requested: 3, Available: 1}

	assert.Equal(t, "Only 1 left of Mug (you asked for 3). Please adjust your cart.", Localize("en", err))
	assert.Equal(t, "Il ne reste que 1 de Mug (vous en demandez 3). Veuillez ajuster votre panier.", Localize("fr-CA,fr;q=0.9", err))
	assert.Equal(t, "Your cart is empty.", Localize("de", ErrEmptyCart))
	assert.Equal(t, "Internal Server Error", Localize("en", errors.New("boom")))
}

func TestFieldErrors(t *testing.T) {
	v := NewValidationError()
	v.Add("ship_postal_code", "invalid_postal_code")

	assert.Equal(t, map[string]string{"ship_postal_code": "Entrez un code postal valide."}, FieldErrors("fr", v))
	assert.Nil(t, FieldErrors("en", ErrEmptyCart))
}

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	assert.NoError(t, v.OrNil())

	v.Add("b", "field_required")
	v.Add("a", "invalid_phone")
	err := v.OrNil()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: a: invalid_phone, b: field_required", err.Error())
}

func TestToStatus(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("accept-language", "fr"))

	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"not found", NotFound("order", "1"), codes.NotFound},
		{"inventory", &InsufficientInventoryError{Name: "Mug"}, codes.FailedPrecondition},
		{"transition", &StatusTransitionError{From: "paid", To: "pending"}, codes.FailedPrecondition},
		{"limit", ErrDownloadLimitReached, codes.FailedPrecondition},
		{"expired", ErrExpiredToken, codes.PermissionDenied},
		{"pickup", ErrPickupLocationRequired, codes.InvalidArgument},
		{"internal", errors.New("db timeout"), codes.Internal},
		{"already a status", status.Error(codes.Unauthenticated, "login"), codes.Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(ToStatus(ctx, tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
		})
	}

	assert.NoError(t, ToStatus(ctx, nil))
}

func TestToStatus_ValidationDetails(t *testing.T) {
	v := NewValidationError()
	v.Add("ship_phone", "invalid_phone")
	v.Add("ship_city", "field_required")

	st, ok := status.FromError(ToStatus(context.Background(), v))
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "Please correct the errors below.", st.Message())

	require.Len(t, st.Details(), 1)
	br, ok := st.Details()[0].(*errdetails.BadRequest)
	require.True(t, ok)
	require.Len(t, br.FieldViolations, 2)
	assert.Equal(t, "ship_city", br.FieldViolations[0].Field)
	assert.Equal(t, "This field is required.", br.FieldViolations[0].Description)
	assert.Equal(t, "ship_phone", br.FieldViolations[1].Field)
}
