/*
rollup.go - Per-agent, per-period commission statistics

PURPOSE:
  Aggregates realized commissions per agent for a period: today, the
  current civil month, or lifetime. Two scopes are rolled together:

    direct: orders the agent paid for themselves (SalesCode == agent)
    team:   orders of secondary agents whose ParentCode == agent,
            contributing their PrimaryShareAmount

  The rollup is ALWAYS a full recomputation from the order set. There is
  no authoritative rollup-only state that can drift; recomputing is the
  repair path by construction. Missing amounts count as zero - aggregate
  math never fails on absent fields.

TIME:
  Period boundaries are civil-day/civil-month boundaries in an injected
  *time.Location. The deployment runs a single fixed timezone (UTC+8 in
  the source system); it is a constructor argument here, never a hidden
  constant.
*/
package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Period selects the aggregation window.
type Period string

const (
	PeriodToday    Period = "today"
	PeriodMonth    Period = "month"
	PeriodLifetime Period = "lifetime"
)

// Window returns the half-open [from, to) bounds for the period around
// now, in loc. Lifetime returns zero bounds (no constraint).
func (p Period) Window(now time.Time, loc *time.Location) (from, to time.Time) {
	switch p {
	case PeriodToday:
		from = startOfDay(now, loc)
		return from, from.AddDate(0, 0, 1)
	case PeriodMonth:
		lt := now.In(loc)
		from = time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0)
	default:
		return time.Time{}, time.Time{}
	}
}

// Stats is the rollup for one agent over one period.
type Stats struct {
	AgentCode string
	Period    Period

	OrderCount    int
	AmountSum     decimal.Decimal
	CommissionSum decimal.Decimal

	DirectAmountSum     decimal.Decimal
	DirectCommissionSum decimal.Decimal
	TeamAmountSum       decimal.Decimal
	TeamCommissionSum   decimal.Decimal
}

// Rollup computes per-agent statistics by full recomputation.
type Rollup struct {
	Orders   OrderStore
	Agents   AgentStore
	Location *time.Location
}

// NewRollup creates a rollup over the given stores in the given timezone.
func NewRollup(orders OrderStore, agents AgentStore, loc *time.Location) *Rollup {
	return &Rollup{Orders: orders, Agents: agents, Location: loc}
}

// Compute aggregates realized commissions for one agent. Only realized
// orders contribute; pending and rejected orders carry no commission.
func (r *Rollup) Compute(ctx context.Context, agentCode string, period Period, now time.Time) (*Stats, error) {
	from, to := period.Window(now, r.Location)

	stats := newStats(agentCode, period)

	// Direct orders.
	direct, err := r.Orders.ListOrders(ctx, OrderFilter{
		SalesCode:    agentCode,
		RealizedOnly: true,
		From:         from,
		To:           to,
	})
	if err != nil {
		return nil, err
	}
	for _, o := range direct {
		stats.OrderCount++
		stats.DirectAmountSum = stats.DirectAmountSum.Add(o.Amount)
		stats.DirectCommissionSum = stats.DirectCommissionSum.Add(deref(o.CommissionAmount))
	}

	// Team orders: secondaries reporting to this agent.
	children, err := r.childCodes(ctx, agentCode)
	if err != nil {
		return nil, err
	}
	if len(children) > 0 {
		team, err := r.Orders.ListOrders(ctx, OrderFilter{
			SalesCodes:   children,
			RealizedOnly: true,
			From:         from,
			To:           to,
		})
		if err != nil {
			return nil, err
		}
		for _, o := range team {
			stats.OrderCount++
			stats.TeamAmountSum = stats.TeamAmountSum.Add(o.Amount)
			stats.TeamCommissionSum = stats.TeamCommissionSum.Add(deref(o.PrimaryShareAmount))
		}
	}

	stats.AmountSum = stats.DirectAmountSum.Add(stats.TeamAmountSum)
	stats.CommissionSum = stats.DirectCommissionSum.Add(stats.TeamCommissionSum)
	return stats, nil
}

// Leaderboard computes stats for every agent in the directory. This is
// the cross-agent aggregate the exclusion overlay applies to.
func (r *Rollup) Leaderboard(ctx context.Context, period Period, now time.Time) ([]*Stats, error) {
	agents, err := r.Agents.ListAgents(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*Stats, 0, len(agents))
	for _, a := range agents {
		s, err := r.Compute(ctx, a.Code, period, now)
		if err != nil {
			return nil, err
		}
		views = append(views, s)
	}
	return views, nil
}

func (r *Rollup) childCodes(ctx context.Context, agentCode string) ([]string, error) {
	agents, err := r.Agents.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	var codes []string
	for _, a := range agents {
		if a.Tier == TierSecondary && a.ParentCode == agentCode {
			codes = append(codes, a.Code)
		}
	}
	return codes, nil
}

func newStats(agentCode string, period Period) *Stats {
	return &Stats{
		AgentCode:           agentCode,
		Period:              period,
		AmountSum:           decimal.Zero,
		CommissionSum:       decimal.Zero,
		DirectAmountSum:     decimal.Zero,
		DirectCommissionSum: decimal.Zero,
		TeamAmountSum:       decimal.Zero,
		TeamCommissionSum:   decimal.Zero,
	}
}

// deref treats a missing amount as zero.
func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
