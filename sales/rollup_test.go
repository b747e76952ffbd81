package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/sales"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type rollupFixture struct {
	*fixture
	rollup *sales.Rollup
}

func newRollupFixture(t *testing.T) *rollupFixture {
	t.Helper()
	f := newFixture(t)
	return &rollupFixture{
		fixture: f,
		rollup:  sales.NewRollup(f.store, f.store, shanghai),
	}
}

// realizeOrderAt creates an order, realizes it, and pins its effective
// time so period windows can be tested deterministically.
func (f *rollupFixture) realizeOrderAt(t *testing.T, id, code string, amount float64, effective time.Time) {
	t.Helper()
	ctx := context.Background()

	o := sales.NewOrder(id, code, decimal.NewFromFloat(amount), effective)
	advance(t, o, sales.StatusConfirmedPayment, sales.StatusPendingConfig)
	o.PaymentTime = effective
	if err := sales.Transition(o, sales.StatusConfirmedConfig, effective); err != nil {
		t.Fatalf("confirm config: %v", err)
	}
	if err := f.store.SaveOrder(ctx, o); err != nil {
		t.Fatalf("save order: %v", err)
	}
	if _, err := f.engine.RealizeByCode(ctx, o); err != nil {
		t.Fatalf("realize %s: %v", id, err)
	}
}

// =============================================================================
// DIRECT VS TEAM AGGREGATION
// =============================================================================

func TestRollup_DirectAndTeamSplit(t *testing.T) {
	// GIVEN: Primary at 40% with a secondary at 25%; one direct order
	//        of 2000 and one team order of 1000
	// WHEN: Computing the primary's lifetime stats
	// THEN: Direct commission 800, team commission 150 (the spread),
	//       totals summing both

	f := newRollupFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)
	f.addAgent(t, "S1", sales.TierSecondary, "P1", 0.25)

	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, shanghai)
	f.realizeOrderAt(t, "ord-direct", "P1", 2000, now)
	f.realizeOrderAt(t, "ord-team", "S1", 1000, now)

	stats, err := f.rollup.Compute(context.Background(), "P1", sales.PeriodLifetime, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if stats.OrderCount != 2 {
		t.Errorf("expected 2 orders, got %d", stats.OrderCount)
	}
	requireEqual(t, 800, stats.DirectCommissionSum, "direct commission")
	requireEqual(t, 150, stats.TeamCommissionSum, "team commission")
	requireEqual(t, 950, stats.CommissionSum, "total commission")
	requireEqual(t, 3000, stats.AmountSum, "total amount")
}

func TestRollup_SecondaryOwnView(t *testing.T) {
	// The secondary's own stats count their full 25%, not the spread.

	f := newRollupFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)
	f.addAgent(t, "S1", sales.TierSecondary, "P1", 0.25)

	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, shanghai)
	f.realizeOrderAt(t, "ord-1", "S1", 1000, now)

	stats, err := f.rollup.Compute(context.Background(), "S1", sales.PeriodLifetime, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	requireEqual(t, 250, stats.DirectCommissionSum, "direct commission")
	requireEqual(t, 0, stats.TeamCommissionSum, "team commission")
}

func TestRollup_UnrealizedOrdersDoNotCount(t *testing.T) {
	f := newRollupFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)

	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, shanghai)
	o := sales.NewOrder("ord-1", "P1", decimal.NewFromInt(1000), now)
	if err := f.store.SaveOrder(context.Background(), o); err != nil {
		t.Fatalf("save: %v", err)
	}

	stats, err := f.rollup.Compute(context.Background(), "P1", sales.PeriodLifetime, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if stats.OrderCount != 0 {
		t.Errorf("pending orders must not count, got %d", stats.OrderCount)
	}
}

// =============================================================================
// PERIOD WINDOW TESTS
// =============================================================================

func TestRollup_TodayWindowUsesCivilDayInLocation(t *testing.T) {
	// GIVEN: An order effective at 23:00 yesterday and one at 01:00
	//        today, Shanghai time
	// WHEN: Computing today's stats at 12:00
	// THEN: Only today's order counts

	f := newRollupFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, shanghai)
	f.realizeOrderAt(t, "ord-yesterday", "P1", 1000,
		time.Date(2025, time.June, 14, 23, 0, 0, 0, shanghai))
	f.realizeOrderAt(t, "ord-today", "P1", 2000,
		time.Date(2025, time.June, 15, 1, 0, 0, 0, shanghai))

	stats, err := f.rollup.Compute(context.Background(), "P1", sales.PeriodToday, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if stats.OrderCount != 1 {
		t.Fatalf("expected 1 order today, got %d", stats.OrderCount)
	}
	requireEqual(t, 2000, stats.AmountSum, "today amount")
}

func TestRollup_MonthWindow(t *testing.T) {
	f := newRollupFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, shanghai)
	f.realizeOrderAt(t, "ord-may", "P1", 1000,
		time.Date(2025, time.May, 31, 23, 0, 0, 0, shanghai))
	f.realizeOrderAt(t, "ord-june", "P1", 2000,
		time.Date(2025, time.June, 1, 0, 30, 0, 0, shanghai))

	stats, err := f.rollup.Compute(context.Background(), "P1", sales.PeriodMonth, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if stats.OrderCount != 1 {
		t.Fatalf("expected 1 order this month, got %d", stats.OrderCount)
	}
	requireEqual(t, 2000, stats.AmountSum, "month amount")
}

func TestRollup_RecomputationIsDeterministic(t *testing.T) {
	// Two computations over the same store agree; there is no cached
	// counter to drift.

	f := newRollupFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)
	f.addAgent(t, "S1", sales.TierSecondary, "P1", 0.25)

	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, shanghai)
	f.realizeOrderAt(t, "ord-1", "P1", 2000, now)
	f.realizeOrderAt(t, "ord-2", "S1", 1000, now)

	first, err := f.rollup.Compute(context.Background(), "P1", sales.PeriodLifetime, now)
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}
	second, err := f.rollup.Compute(context.Background(), "P1", sales.PeriodLifetime, now)
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}

	if first.OrderCount != second.OrderCount ||
		!first.CommissionSum.Equal(second.CommissionSum) ||
		!first.AmountSum.Equal(second.AmountSum) {
		t.Errorf("recomputation drifted: %+v vs %+v", first, second)
	}
}

// =============================================================================
// LEADERBOARD + EXCLUSION OVERLAY
// =============================================================================

func TestLeaderboard_ExclusionHidesOthersButNeverSelf(t *testing.T) {
	// GIVEN: Three agents, one excluded
	// WHEN: Viewing as a third party vs as the excluded agent
	// THEN: The excluded row is hidden from others but visible to itself

	f := newRollupFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)
	f.addAgent(t, "S1", sales.TierSecondary, "P1", 0.25)
	f.addAgent(t, "I1", sales.TierIndependent, "", 0.30)

	ctx := context.Background()
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, shanghai)
	f.realizeOrderAt(t, "ord-1", "I1", 1000, now)

	if err := f.store.SetExclusion(ctx, sales.ExclusionEntry{
		AgentCode: "I1", Active: true, Reason: "internal test account", CreatedAt: now,
	}); err != nil {
		t.Fatalf("set exclusion: %v", err)
	}

	view, err := f.rollup.Leaderboard(ctx, sales.PeriodLifetime, now)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	entries, err := f.store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list exclusions: %v", err)
	}
	set := sales.NewExclusionSet(entries)

	asOther := sales.ApplyExclusion(view, set, "P1")
	for _, s := range asOther {
		if s.AgentCode == "I1" {
			t.Error("excluded agent leaked into another agent's view")
		}
	}
	if len(asOther) != 2 {
		t.Errorf("expected 2 rows for others, got %d", len(asOther))
	}

	asSelf := sales.ApplyExclusion(view, set, "I1")
	found := false
	for _, s := range asSelf {
		if s.AgentCode == "I1" {
			found = true
		}
	}
	if !found {
		t.Error("excluded agent lost their own row")
	}
}

func TestLeaderboard_DeactivatedExclusionRestoresRow(t *testing.T) {
	f := newRollupFixture(t)
	f.addAgent(t, "I1", sales.TierIndependent, "", 0.30)

	ctx := context.Background()
	now := time.Now()

	if err := f.store.SetExclusion(ctx, sales.ExclusionEntry{
		AgentCode: "I1", Active: true, CreatedAt: now,
	}); err != nil {
		t.Fatalf("set exclusion: %v", err)
	}
	if err := f.store.RemoveExclusion(ctx, "I1"); err != nil {
		t.Fatalf("remove exclusion: %v", err)
	}

	entries, err := f.store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list exclusions: %v", err)
	}
	set := sales.NewExclusionSet(entries)
	if set.Excluded("I1") {
		t.Error("deactivated exclusion should not filter")
	}
}
