/*
store.go - Persistence interfaces for orders, agents, and exclusions

PURPOSE:
  Defines the boundary between the engine and the database. The engine
  owns no persistence; it is handed these interfaces by the caller.
  Different implementations can use SQLite or in-memory storage.

COMMISSION WRITE DISCIPLINE:
  The only concurrency hazard in this system is double realization:
  two concurrent transitions into confirmed_config must not both sum
  commission. ConditionalSetCommission is the compare-and-set that
  enforces it - the write applies only if the commission fields are
  currently null. Implementations MUST make that check and the write
  atomic; the engine treats "not applied" as an already-realized order
  and re-reads.

READ CONSISTENCY:
  All reads (lookups, listings, rollups) are pure and tolerate
  eventually-consistent views of the order set. They are safe to re-run
  at any time.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - sales/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: Calls ConditionalSetCommission at realization
  - rollup.go: Full recomputation over ListOrders
*/
package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER STORE
// =============================================================================

// OrderFilter narrows ListOrders. Zero values mean "no constraint".
type OrderFilter struct {
	SalesCode    string
	SalesCodes   []string
	Statuses     []OrderStatus
	RealizedOnly bool
	From         time.Time // inclusive, against StatTime
	To           time.Time // exclusive, against StatTime
}

// Matches reports whether an order passes the filter. Store implementations
// may use it directly or translate the filter into a query.
func (f OrderFilter) Matches(o *Order) bool {
	if f.SalesCode != "" && o.SalesCode != f.SalesCode {
		return false
	}
	if len(f.SalesCodes) > 0 {
		found := false
		for _, c := range f.SalesCodes {
			if o.SalesCode == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if o.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.RealizedOnly && !o.Realized() {
		return false
	}
	at := o.StatTime()
	if !f.From.IsZero() && at.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !at.Before(f.To) {
		return false
	}
	return true
}

// CommissionFields is the one-time commission write applied at realization.
type CommissionFields struct {
	RateSnapshot       decimal.Decimal
	CommissionAmount   decimal.Decimal
	PrimaryShareAmount *decimal.Decimal
	EffectiveTime      time.Time
}

// OrderStore handles order persistence.
type OrderStore interface {
	// GetOrder returns the order or ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// SaveOrder inserts or updates an order's lifecycle fields. It MUST NOT
	// touch commission fields on an already-realized order.
	SaveOrder(ctx context.Context, o *Order) error

	// ListOrders returns orders matching the filter, ordered by StatTime.
	ListOrders(ctx context.Context, f OrderFilter) ([]*Order, error)

	// ConditionalSetCommission writes the commission fields iff they are
	// currently null. Returns (true, nil) when the write applied and
	// (false, nil) when another realization got there first.
	ConditionalSetCommission(ctx context.Context, id string, f CommissionFields) (bool, error)

	// MarkReminded sets the reminder-acknowledged flag and timestamp.
	MarkReminded(ctx context.Context, id string, at time.Time) error
}

// =============================================================================
// AGENT STORE
// =============================================================================

// AgentStore handles sales directory persistence.
type AgentStore interface {
	// GetAgent returns the agent or ErrCodeNotFound.
	GetAgent(ctx context.Context, code string) (*SalesAgent, error)

	// SaveAgent inserts or updates an agent. Code is immutable.
	SaveAgent(ctx context.Context, a *SalesAgent) error

	// ListAgents returns all agents.
	ListAgents(ctx context.Context) ([]*SalesAgent, error)
}

// =============================================================================
// EXCLUSION STORE
// =============================================================================

// ExclusionStore handles the administrative exclusion list. Presence is
// checked per-read, never cached into orders or agents.
type ExclusionStore interface {
	// ListActive returns currently active exclusion entries.
	ListActive(ctx context.Context) ([]ExclusionEntry, error)

	// SetExclusion creates or updates an entry.
	SetExclusion(ctx context.Context, e ExclusionEntry) error

	// RemoveExclusion deactivates the entry for a code.
	RemoveExclusion(ctx context.Context, agentCode string) error
}
