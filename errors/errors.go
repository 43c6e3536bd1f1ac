// Package errors provides error handling for riftwatch.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for operator-facing messages
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrConfigValidation) {
//	    // reject the configuration
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Common sentinel errors for use across riftwatch.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrConfigValidation indicates a job configuration is missing required
	// keys or carries values outside their valid range. A configuration that
	// fails validation is never scheduled.
	ErrConfigValidation = New("config validation failed")

	// ErrExecutionTimeout indicates a job exceeded its configured timeout_seconds
	ErrExecutionTimeout = New("execution timed out")

	// ErrServiceUnavailable indicates the external API could not serve the request
	ErrServiceUnavailable = New("service unavailable")

	// ErrRateLimited indicates the external API call budget is exhausted
	ErrRateLimited = New("rate limited")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsConfigValidationError checks if an error is or wraps ErrConfigValidation
func IsConfigValidationError(err error) bool {
	return err != nil && Is(err, ErrConfigValidation)
}

// IsRetryable reports whether an external API error is worth retrying within
// a job's own bounded-retry policy. Rate limits and transient unavailability
// are retryable; everything else surfaces as job failure.
func IsRetryable(err error) bool {
	return err != nil && (Is(err, ErrRateLimited) || Is(err, ErrServiceUnavailable))
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewConfigValidationError creates a config-validation error with a formatted message
func NewConfigValidationError(format string, args ...interface{}) error {
	return Wrap(ErrConfigValidation, Newf(format, args...).Error())
}
