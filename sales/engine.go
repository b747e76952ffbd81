/*
engine.go - One-time commission realization

PURPOSE:
  Computes and freezes an order's commission amounts at the moment the
  order first reaches confirmed_config, using the agents' rates at that
  instant. Realization happens AT MOST ONCE per order: the rate snapshot
  and derived amounts are never recomputed, no matter how the directory
  changes afterwards.

ALGORITHM:
  1. ownRate = normalize(agent rate); snapshot it on the order
  2. commission = amount * ownRate
  3. secondary with a resolvable parent additionally earns the primary
     a share: amount * max(parentRate - ownRate, 0). Never negative -
     the primary never owes the secondary.
  4. primary-acting-directly and independent agents leave the primary
     share nil; there is no second tier to pay.

EXACTLY-ONCE GUARD:
  The write goes through OrderStore.ConditionalSetCommission ("set iff
  currently null"). Two concurrent confirmations race on that single
  conditional write; the loser re-reads and returns the winner's result
  flagged AlreadyRealized. No locks in the engine itself.

EDGE CASES:
  - amount == 0 runs the full path and yields 0 commission; free orders
    are not special-cased.
  - Realization on a rejected/cancelled order is a no-op with an absent
    result. The state machine should prevent the sequence, but the
    engine re-checks rather than assuming it.

SEE ALSO:
  - lifecycle.go: The confirmed_config entry point
  - rate.go: Rate normalization
*/
package sales

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Engine realizes commission amounts exactly once per order.
type Engine struct {
	Directory *Directory
	Orders    OrderStore
	Logger    *log.Logger // optional
}

// NewEngine creates a commission engine.
func NewEngine(dir *Directory, orders OrderStore) *Engine {
	return &Engine{Directory: dir, Orders: orders}
}

// Realize computes and freezes the commission for an order. The agent is
// the paying agent; parent is its primary (nil for independent/primary
// agents or an unresolvable parent).
//
// Calling Realize on an already-realized order returns the prior result
// with AlreadyRealized set; it never recomputes or double-counts.
func (e *Engine) Realize(ctx context.Context, o *Order, agent *SalesAgent, parent *SalesAgent) (*CommissionResult, error) {
	// Terminal orders never realize. Not an error: the state machine should
	// have prevented this, but the engine re-checks.
	if o.Status == StatusRejected || o.Status == StatusCancelled {
		e.logf("[Engine] realize skipped for %s order %s", o.Status, o.ID)
		return nil, nil
	}

	if o.Realized() {
		return priorResult(o), nil
	}

	ownRate, err := NormalizeRate(agent.CommissionRate)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", agent.Code, err)
	}

	fields := CommissionFields{
		RateSnapshot:     ownRate,
		CommissionAmount: o.Amount.Mul(ownRate),
		EffectiveTime:    o.EffectiveTime,
	}
	if fields.EffectiveTime.IsZero() {
		fields.EffectiveTime = time.Now()
	}

	if agent.Tier == TierSecondary && parent != nil {
		parentRate, err := NormalizeRate(parent.CommissionRate)
		if err != nil {
			return nil, fmt.Errorf("parent %s: %w", parent.Code, err)
		}
		share := o.Amount.Mul(agent.EffectiveParentShareRate(parentRate))
		fields.PrimaryShareAmount = &share
	}

	applied, err := e.Orders.ConditionalSetCommission(ctx, o.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("commission write for order %s: %w", o.ID, err)
	}

	if !applied {
		// Lost the race: another confirmation realized first. Re-read and
		// return the winner's amounts.
		current, err := e.Orders.GetOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		*o = *current
		return priorResult(o), nil
	}

	o.CommissionRateSnapshot = &fields.RateSnapshot
	o.CommissionAmount = &fields.CommissionAmount
	o.PrimaryShareAmount = fields.PrimaryShareAmount
	if o.EffectiveTime.IsZero() {
		o.EffectiveTime = fields.EffectiveTime
	}

	return &CommissionResult{
		OrderID:            o.ID,
		RateSnapshot:       fields.RateSnapshot,
		CommissionAmount:   fields.CommissionAmount,
		PrimaryShareAmount: fields.PrimaryShareAmount,
	}, nil
}

// RealizeByCode resolves the agent and parent from the directory and
// realizes. Unresolvable sales codes surface ErrCodeNotFound.
func (e *Engine) RealizeByCode(ctx context.Context, o *Order) (*CommissionResult, error) {
	agent, err := e.Directory.Resolve(ctx, o.SalesCode)
	if err != nil {
		return nil, err
	}
	parent, err := e.Directory.ResolveParent(ctx, agent)
	if err != nil {
		return nil, err
	}
	return e.Realize(ctx, o, agent, parent)
}

func priorResult(o *Order) *CommissionResult {
	r := &CommissionResult{OrderID: o.ID, AlreadyRealized: true}
	if o.CommissionRateSnapshot != nil {
		r.RateSnapshot = *o.CommissionRateSnapshot
	}
	if o.CommissionAmount != nil {
		r.CommissionAmount = *o.CommissionAmount
	}
	r.PrimaryShareAmount = o.PrimaryShareAmount
	return r
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
