// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// LLM call errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

	// ErrEmptyResponse indicates an empty response was received from the model.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse indicates the model response could not be parsed.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrRetriesExhausted indicates all retry attempts failed.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Input and validation errors.
var (
	// ErrInvalidRecord indicates a raw review record is missing required fields.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyBatch indicates no reviews remained after normalization.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrInvalidDateRange indicates the requested date range is malformed.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Composition errors.
var (
	// ErrWeekBelowThreshold indicates a week bucket has too few reviews for a pulse.
	ErrWeekBelowThreshold = errors.New("week below minimum review threshold")

	// ErrComposeFailed indicates the pulse for a week could not be assembled.
	ErrComposeFailed = errors.New("pulse composition failed")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
