// Package apperror defines the error taxonomy shared by every feature package.
//
// Feature packages wrap these sentinels with %w so that handlers can map any
// error to a response with errors.Is, without knowing which package raised it.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks invalid user input. The operation is aborted before any state change.
	ErrValidation = errors.New("validation failed")

	// ErrMismatch marks manual split amounts that do not add up to the expense total.
	ErrMismatch = errors.New("split amounts do not match total")

	// ErrRateUnavailable marks a failed or empty exchange-rate lookup.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrPersistence marks a failed store call. Nothing was written.
	ErrPersistence = errors.New("persistence failure")

	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation returns a validation error with the given message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Persistence wraps a store failure.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

