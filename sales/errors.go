/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Adapter layers (HTTP, CLI) map these to their own status codes.

ERROR CATEGORIES:
  1. Lookup errors - A sales code or order does not resolve
  2. Validation errors - Rate or transition rule violations
  3. Store errors - Persistence-level failures

PROPAGATION POLICY:
  ErrCodeNotFound is a soft, user-facing condition: callers show a
  generic message rather than leaking lookup internals. A repeated
  realization is NOT an error at all (see Engine.Realize). Invalid
  rates and invalid transitions are surfaced as rejected operations.

SEE ALSO:
  - rate.go: Returns InvalidRateError
  - lifecycle.go: Returns InvalidTransitionError
*/
package sales

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCodeNotFound is returned when a sales code does not resolve.
	// Callers should treat this as a soft, retryable condition.
	ErrCodeNotFound = errors.New("sales code not found")

	// ErrOrderNotFound is returned when an order ID does not resolve.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidRate is returned when a rate is outside the normalizable range.
	ErrInvalidRate = errors.New("invalid commission rate")

	// ErrInvalidTransition is returned for an illegal lifecycle transition,
	// e.g. rejecting an order whose commission is already realized.
	ErrInvalidTransition = errors.New("invalid order transition")

	// ErrSchemaMismatch is returned when the backing store lacks fields this
	// engine requires. The engine never guesses at migration state.
	ErrSchemaMismatch = errors.New("store schema mismatch")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRateError reports a rate that cannot be normalized into [0, 1].
type InvalidRateError struct {
	Raw        string
	Normalized string
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("invalid commission rate %s: normalizes to %s, outside [0, 1]",
		e.Raw, e.Normalized)
}

func (e *InvalidRateError) Unwrap() error {
	return ErrInvalidRate
}

// InvalidTransitionError reports an illegal lifecycle transition.
type InvalidTransitionError struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
	Reason  string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("order %s: cannot transition %s -> %s: %s",
			e.OrderID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("order %s: cannot transition %s -> %s", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing agent or order.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCodeNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrInvalidTransition)
}
