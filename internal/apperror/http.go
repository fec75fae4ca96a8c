package apperror

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-storefront/pkg/i18n"
)

// HTTPStatus picks the response code for the storefront HTTP surface.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrExpiredToken), errors.Is(err, ErrDownloadLimitReached):
		return http.StatusGone
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidStatusTransition):
		return http.StatusConflict
	}
	if _, _, ok := MessageID(err); ok {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Localize renders err for lang. Non business errors get a generic message.
func Localize(lang string, err error) string {
	id, data, ok := MessageID(err)
	if !ok {
		return http.StatusText(http.StatusInternalServerError)
	}
	return i18n.T(lang, id, data)
}

// FieldErrors localizes the per-field messages of a ValidationError, or
// returns nil for any other error.
func FieldErrors(lang string, err error) map[string]string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	out := make(map[string]string, len(verr.Fields))
	for field, id := range verr.Fields {
		out[field] = i18n.T(lang, id, nil)
	}
	return out
}
