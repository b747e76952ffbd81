/*
lifecycle.go - Order lifecycle state machine

PURPOSE:
  Governs legal status transitions for an order:

    pending_payment -> confirmed_payment -> pending_config
      -> confirmed_config -> active -> expired

  with two manual terminal exits: cancelled (any non-terminal state) and
  rejected (only before commission realization).

RULES:
  - Forward transitions are manually triggered by administrative
    confirmation, except active -> expired which is time-triggered by an
    external sweep over the pure IsExpired predicate.
  - rejected is disallowed once commission is realized. There is no
    clawback path; rejecting a realized order is InvalidTransitionError.
  - Re-entering confirmed_config (a duplicate confirmation event) is a
    no-op when commission is already realized.

SEE ALSO:
  - engine.go: Realization happens on entry into confirmed_config
  - api/sweeper.go: Drives active -> expired
*/
package sales

import "time"

// forwardTransitions is the happy-path chain.
var forwardTransitions = map[OrderStatus]OrderStatus{
	StatusPendingPayment:   StatusConfirmedPayment,
	StatusConfirmedPayment: StatusPendingConfig,
	StatusPendingConfig:    StatusConfirmedConfig,
	StatusConfirmedConfig:  StatusActive,
	StatusActive:           StatusExpired,
}

// CanTransition reports whether an order may move to the target status.
// It encodes the structural rules only; Transition additionally applies
// the realization guard for rejected.
func CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if forwardTransitions[from] == to {
		return true
	}
	switch to {
	case StatusCancelled:
		return true
	case StatusRejected:
		return from == StatusPendingPayment ||
			from == StatusConfirmedPayment ||
			from == StatusPendingConfig
	case StatusConfirmedConfig:
		// duplicate confirmation event; Transition turns this into a no-op
		return from == StatusConfirmedConfig
	}
	return false
}

// Transition moves an order to the target status, mutating lifecycle
// timestamps. It does NOT persist; callers save through an OrderStore.
//
// Returns InvalidTransitionError for illegal moves, including rejecting
// an order whose commission is already set.
func Transition(o *Order, to OrderStatus, now time.Time) error {
	// Duplicate confirmation of an already-realized order is a no-op.
	if o.Status == StatusConfirmedConfig && to == StatusConfirmedConfig && o.Realized() {
		return nil
	}

	if to == StatusRejected && o.CommissionAmount != nil {
		return &InvalidTransitionError{
			OrderID: o.ID, From: o.Status, To: to,
			Reason: "commission already realized",
		}
	}

	if !CanTransition(o.Status, to) {
		return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: to}
	}

	switch to {
	case StatusConfirmedPayment:
		if o.PaymentTime.IsZero() {
			o.PaymentTime = now
		}
	case StatusConfirmedConfig:
		if o.EffectiveTime.IsZero() {
			o.EffectiveTime = now
		}
	}

	o.Status = to
	return nil
}

// IsExpired is the pure time predicate for the active -> expired sweep.
// An order with no expiry time never expires.
func IsExpired(o *Order, now time.Time) bool {
	if o.Status != StatusActive || o.ExpiryTime.IsZero() {
		return false
	}
	return now.After(o.ExpiryTime)
}
