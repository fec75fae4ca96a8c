// Package apperror holds the business errors surfaced to shoppers at checkout
// and on the download page. None of them are retried by the service.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidFulfillment      = errors.New("invalid fulfillment method")
	ErrPickupLocationRequired  = errors.New("an active pickup location is required")
	ErrInsufficientInventory   = errors.New("insufficient inventory")
	ErrExpiredToken            = errors.New("download token expired")
	ErrInvalidToken            = errors.New("download token invalid")
	ErrDownloadLimitReached    = errors.New("download limit reached")
	ErrNotFound                = errors.New("not found")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrValidation              = errors.New("validation failed")
)

// InsufficientInventoryError names the product whose stock or seats could
// not cover the requested quantity.
type InsufficientInventoryError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %s (%s): requested %d, available %d",
		e.ProductID, e.Name, e.Requested, e.Available)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

type NotFoundError struct {
	Entity string
	ID     string
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type StatusTransitionError struct {
	From string
	To   string
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}

func (e *StatusTransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}

// ValidationError is a field -> message id set, re-displayed next to the
// offending form fields.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, messageID string) {
	e.Fields[field] = messageID
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns nil when no field failed so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MessageID maps err to its i18n message id and template data. ok is false
// for errors that are not user facing.
func MessageID(err error) (id string, data map[string]interface{}, ok bool) {
	var inv *InsufficientInventoryError
	var nf *NotFoundError
	var st *StatusTransitionError

	switch {
	case errors.As(err, &inv):
		return "insufficient_inventory", map[string]interface{}{
			"Name": inv.Name, "Requested": inv.Requested, "Available": inv.Available,
		}, true
	case errors.As(err, &nf):
		return "not_found", map[string]interface{}{"Entity": nf.Entity}, true
	case errors.As(err, &st):
		return "invalid_status_transition", map[string]interface{}{"From": st.From, "To": st.To}, true
	case errors.Is(err, ErrValidation):
		return "validation_failed", nil, true
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart", nil, true
	case errors.Is(err, ErrInvalidFulfillment):
		return "invalid_fulfillment", nil, true
	case errors.Is(err, ErrPickupLocationRequired):
		return "pickup_location_required", nil, true
	case errors.Is(err, ErrExpiredToken):
		return "expired_token", nil, true
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token", nil, true
	case errors.Is(err, ErrDownloadLimitReached):
		return "download_limit_reached", nil, true
	}
	return "", nil, false
}
