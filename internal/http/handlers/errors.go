package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-rental-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeGateway          = "gateway_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// statusFor returns the HTTP status and code for a service error.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict, ErrCodeInvalidState
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, services.ErrGateway):
		return http.StatusBadGateway, ErrCodeGateway
	}
	return http.StatusInternalServerError, ErrCodeInternal
}
