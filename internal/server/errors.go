package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/form-autofill/internal/backend"
	"github.com/jonathan/form-autofill/internal/store"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var transport *backend.TransportError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.As(err, &transport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the error text safe to return to a client. Upstream and
// internal failures are not echoed.
func PublicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusPaymentRequired:
		return "insufficient credits"
	case http.StatusBadGateway:
		return "classification backend unavailable"
	default:
		return "internal error"
	}
}
