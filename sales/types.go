/*
Package sales provides the core commission engine for a two-tier
referral sales network.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  primary agents, their secondary sub-agents, and independent agents
  selling subscription-like products: commission computation, order
  lifecycle transitions, reminder classification, and per-agent
  statistics rollup.

KEY CONCEPTS IN THIS FILE (types.go):
  - SalesAgent: An agent identified by code, with a tier and a rate
  - Order: The unit of work, carrying a frozen commission snapshot
  - OrderStatus: Lifecycle states from pending_payment to terminal
  - CommissionResult: The outcome of a one-time realization

DESIGN PRINCIPLES:
  1. Immutability: Once realized, commission fields are never rewritten
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Purity: Classification and rollup are read-only computations
  4. Explicit time: The civil timezone is always an injected parameter

USAGE:
  agent := &sales.SalesAgent{Code: "A100", Tier: sales.TierPrimary}
  order := sales.NewOrder("ord-1", "A100", decimal.NewFromInt(1000), now)

SEE ALSO:
  - engine.go: Commission realization
  - lifecycle.go: Status transitions
  - rollup.go: Period aggregation
*/
package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SALES AGENT - The two-tier directory entry
// =============================================================================

type Tier string

const (
	TierPrimary     Tier = "primary"     // top-tier, may have secondaries reporting in
	TierSecondary   Tier = "secondary"   // reports to exactly one primary
	TierIndependent Tier = "independent" // no parent, keeps its full own rate
)

// SalesAgent is an entry in the sales directory.
//
// INVARIANTS:
//   - Code is unique and immutable.
//   - ParentCode is set iff Tier is secondary and the agent reports to
//     a primary. Independent and primary agents have no parent.
//   - CommissionRate is canonical: a decimal in [0, 1].
type SalesAgent struct {
	Code           string
	DisplayName    string
	Tier           Tier
	ParentCode     string
	CommissionRate decimal.Decimal
	CreatedAt      time.Time
}

// EffectiveParentShareRate returns the rate differential the parent earns
// on this agent's orders: max(parentRate - ownRate, 0). The primary never
// owes the secondary.
func (a *SalesAgent) EffectiveParentShareRate(parentRate decimal.Decimal) decimal.Decimal {
	diff := parentRate.Sub(a.CommissionRate)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

// =============================================================================
// ORDER - The unit of work
// =============================================================================

type OrderStatus string

const (
	StatusPendingPayment   OrderStatus = "pending_payment"
	StatusConfirmedPayment OrderStatus = "confirmed_payment"
	StatusPendingConfig    OrderStatus = "pending_config"
	StatusConfirmedConfig  OrderStatus = "confirmed_config" // commission-realizing state
	StatusActive           OrderStatus = "active"
	StatusExpired          OrderStatus = "expired"   // terminal, time-triggered
	StatusCancelled        OrderStatus = "cancelled" // terminal, manual
	StatusRejected         OrderStatus = "rejected"  // terminal, manual, pre-realization only
)

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusExpired || s == StatusCancelled || s == StatusRejected
}

// Order is a purchase moving through the payment/configuration lifecycle.
//
// INVARIANTS:
//   - Amount >= 0; zero denotes a free/trial order.
//   - Once CommissionRateSnapshot is non-nil, it and all derived amounts
//     are immutable. Later rate changes in the directory never alter a
//     realized order.
type Order struct {
	ID        string
	SalesCode string
	Amount    decimal.Decimal
	Status    OrderStatus

	// Commission fields, written exactly once at realization.
	CommissionRateSnapshot *decimal.Decimal
	CommissionAmount       *decimal.Decimal
	PrimaryShareAmount     *decimal.Decimal // only for secondary-with-parent orders

	PaymentTime   time.Time
	EffectiveTime time.Time
	ExpiryTime    time.Time

	IsReminded bool
	RemindedAt *time.Time

	CreatedAt time.Time
}

// NewOrder creates an order in its initial state.
func NewOrder(id, salesCode string, amount decimal.Decimal, createdAt time.Time) *Order {
	return &Order{
		ID:        id,
		SalesCode: salesCode,
		Amount:    amount,
		Status:    StatusPendingPayment,
		CreatedAt: createdAt,
	}
}

// Realized reports whether commission has been computed and frozen.
func (o *Order) Realized() bool {
	return o.CommissionRateSnapshot != nil
}

// IsFree reports whether this is a free/trial order.
func (o *Order) IsFree() bool {
	return o.Amount.IsZero()
}

// StatTime returns the timestamp an order is bucketed by for statistics:
// the effective (configuration-confirmed) time when set, otherwise the
// payment time.
func (o *Order) StatTime() time.Time {
	if !o.EffectiveTime.IsZero() {
		return o.EffectiveTime
	}
	return o.PaymentTime
}

// =============================================================================
// COMMISSION RESULT - Outcome of realization
// =============================================================================

// CommissionResult is returned by Engine.Realize. AlreadyRealized marks a
// benign repeat: the prior amounts are returned unchanged and nothing was
// written.
type CommissionResult struct {
	OrderID            string
	RateSnapshot       decimal.Decimal
	CommissionAmount   decimal.Decimal
	PrimaryShareAmount *decimal.Decimal
	AlreadyRealized    bool
}

// =============================================================================
// EXCLUSION ENTRY - View-level filter input
// =============================================================================

// ExclusionEntry removes an agent from aggregate views. It never hides
// the agent's own data from the agent themselves.
type ExclusionEntry struct {
	AgentCode string
	Active    bool
	Reason    string
	CreatedAt time.Time
}
