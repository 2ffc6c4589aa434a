// Package services holds the rental marketplace business logic: the user
// directory, the product catalog and its availability bookkeeping, the
// rental transaction lifecycle, and payment settlement through the gateway.
//
// This file defines the error taxonomy. Every error a service returns wraps
// exactly one category so handlers can map it with errors.Is.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/repo"
)

// Error categories.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrGateway      = errors.New("payment gateway error")
	ErrConflict     = errors.New("conflict")
)

// kindError is a specific error that belongs to a category.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error { return &kindError{kind: kind, msg: msg} }

// Specific errors.
var (
	ErrUserNotFound        = newError(ErrNotFound, "user not found")
	ErrProductNotFound     = newError(ErrNotFound, "product not found")
	ErrTransactionNotFound = newError(ErrNotFound, "transaction not found")
	ErrPaymentNotFound     = newError(ErrNotFound, "payment not found")

	ErrUsernameTaken      = newError(ErrConflict, "username already taken")
	ErrConcurrentUpdate   = newError(ErrConflict, "record was modified concurrently, retry")
	ErrDatabaseBusy       = newError(ErrConflict, "database is busy, retry")
	ErrProductUnavailable = newError(ErrInvalidState, "product is not available")
	ErrProductRented      = newError(ErrInvalidState, "product is currently rented")
	ErrNoConfirmedPayment = newError(ErrInvalidState, "transaction has no confirmed payment")
	ErrAlreadyPaid        = newError(ErrInvalidState, "transaction already has a confirmed payment")

	ErrOwnProduct      = newError(ErrValidation, "cannot rent your own product")
	ErrAmountMismatch  = newError(ErrValidation, "amount does not match the prepared payment")
	ErrInvalidStatus   = newError(ErrValidation, "status may only be AVAILABLE or HIDDEN")
	ErrNotProductOwner = newError(ErrForbidden, "only the product owner can modify it")
	ErrNotPayer        = newError(ErrForbidden, "only the renter can prepare a payment")
)

// validationError builds a one-off ErrValidation for a malformed field.
func validationError(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

// classify maps domain and repository errors onto the taxonomy. Errors that
// already carry a category, and unknown errors, are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrInvalidState, ErrValidation, ErrForbidden, ErrGateway, ErrConflict} {
		if errors.Is(err, kind) {
			return err
		}
	}
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	case errors.Is(err, domain.ErrNotOwner), errors.Is(err, domain.ErrNotParticipant):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case errors.Is(err, domain.ErrInvalidRentalPeriod),
		errors.Is(err, domain.ErrInvalidRentalDays),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrAmountOverflow):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, repo.ErrStale):
		return ErrConcurrentUpdate
	case repo.IsBusy(err):
		return ErrDatabaseBusy
	}
	return err
}

// notFound replaces a repository not-found with the given specific error.
func notFound(err, specific error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return specific
	}
	return err
}

// gatewayError wraps a failed gateway call so it matches both ErrGateway and
// *gateway.Error.
func gatewayError(err error) error {
	return fmt.Errorf("%w: %w", ErrGateway, err)
}
