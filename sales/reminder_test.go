package sales_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/sales"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// reminderOrder builds an active paid order expiring at the given time.
func reminderOrder(t *testing.T, amount float64, expiry time.Time) *sales.Order {
	t.Helper()
	o := sales.NewOrder("ord-1", "A100", decimal.NewFromFloat(amount), time.Now())
	advance(t, o, sales.StatusConfirmedPayment, sales.StatusPendingConfig,
		sales.StatusConfirmedConfig, sales.StatusActive)
	o.ExpiryTime = expiry
	return o
}

var shanghai = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		panic(err)
	}
	return loc
}()

// =============================================================================
// CLASSIFICATION TESTS
// =============================================================================

func TestClassify_PaidOrderInsideUpcomingWindow(t *testing.T) {
	// GIVEN: A paid order expiring in 5 civil days
	// WHEN: Classifying
	// THEN: upcoming_due with 5 days left

	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, shanghai)
	o := reminderOrder(t, 1000, now.AddDate(0, 0, 5))

	rem := sales.Classify(o, now, shanghai)
	if rem.Kind != sales.ReminderUpcoming {
		t.Fatalf("expected upcoming_due, got %s", rem.Kind)
	}
	if rem.Days != 5 {
		t.Errorf("expected 5 days, got %d", rem.Days)
	}
}

func TestClassify_PaidOrderOutsideUpcomingWindow(t *testing.T) {
	// 10 days out is beyond the 7-day paid window.

	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, shanghai)
	o := reminderOrder(t, 1000, now.AddDate(0, 0, 10))

	rem := sales.Classify(o, now, shanghai)
	if rem.Kind != sales.ReminderNone {
		t.Errorf("expected none, got %s", rem.Kind)
	}
}

func TestClassify_FreeOrderHasTighterWindow(t *testing.T) {
	// GIVEN: A free order
	// WHEN: 2 days vs 5 days before expiry
	// THEN: 2 is inside the 3-day free window, 5 is outside

	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, shanghai)

	inside := reminderOrder(t, 0, now.AddDate(0, 0, 2))
	rem := sales.Classify(inside, now, shanghai)
	if rem.Kind != sales.ReminderUpcoming || rem.Days != 2 {
		t.Errorf("expected upcoming_due/2, got %s/%d", rem.Kind, rem.Days)
	}

	outside := reminderOrder(t, 0, now.AddDate(0, 0, 5))
	rem = sales.Classify(outside, now, shanghai)
	if rem.Kind != sales.ReminderNone {
		t.Errorf("expected none, got %s", rem.Kind)
	}
}

func TestClassify_ExpiryDayCountsAsUpcoming(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, shanghai)
	o := reminderOrder(t, 1000, now.Add(2*time.Hour))

	rem := sales.Classify(o, now, shanghai)
	if rem.Kind != sales.ReminderUpcoming || rem.Days != 0 {
		t.Errorf("expected upcoming_due/0, got %s/%d", rem.Kind, rem.Days)
	}
}

func TestClassify_OverdueInsideWindow(t *testing.T) {
	// GIVEN: An order that expired 10 days ago
	// WHEN: Classifying
	// THEN: overdue with 10 days past

	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, shanghai)
	o := reminderOrder(t, 1000, now.AddDate(0, 0, -10))

	rem := sales.Classify(o, now, shanghai)
	if rem.Kind != sales.ReminderOverdue {
		t.Fatalf("expected overdue, got %s", rem.Kind)
	}
	if rem.Days != 10 {
		t.Errorf("expected 10 days past, got %d", rem.Days)
	}
}

func TestClassify_OverdueBeyondWindowGoesQuiet(t *testing.T) {
	// 40 days past expiry is beyond the 30-day overdue window; the
	// order stops generating noise.

	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, shanghai)
	o := reminderOrder(t, 1000, now.AddDate(0, 0, -40))

	rem := sales.Classify(o, now, shanghai)
	if rem.Kind != sales.ReminderNone {
		t.Errorf("expected none, got %s", rem.Kind)
	}
}

func TestClassify_AcknowledgedOrderIsQuiet(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, shanghai)
	o := reminderOrder(t, 1000, now.AddDate(0, 0, 3))
	o.IsReminded = true

	rem := sales.Classify(o, now, shanghai)
	if rem.Kind != sales.ReminderNone {
		t.Errorf("expected none, got %s", rem.Kind)
	}
}

func TestClassify_IneligibleStatusesAreQuiet(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, shanghai)

	pending := sales.NewOrder("ord-1", "A100", decimal.NewFromInt(1000), now)
	pending.ExpiryTime = now.AddDate(0, 0, 3)
	if rem := sales.Classify(pending, now, shanghai); rem.Kind != sales.ReminderNone {
		t.Errorf("pending_payment: expected none, got %s", rem.Kind)
	}

	cancelled := reminderOrder(t, 1000, now.AddDate(0, 0, 3))
	advance(t, cancelled, sales.StatusCancelled)
	if rem := sales.Classify(cancelled, now, shanghai); rem.Kind != sales.ReminderNone {
		t.Errorf("cancelled: expected none, got %s", rem.Kind)
	}
}

func TestClassify_NoExpiryIsQuiet(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, shanghai)
	o := reminderOrder(t, 1000, time.Time{})

	rem := sales.Classify(o, now, shanghai)
	if rem.Kind != sales.ReminderNone {
		t.Errorf("expected none, got %s", rem.Kind)
	}
}

func TestClassify_CivilDayNotDuration(t *testing.T) {
	// 23:30 tonight to 00:30 tomorrow is one civil day apart even
	// though only an hour separates them.

	now := time.Date(2025, time.June, 10, 23, 30, 0, 0, shanghai)
	o := reminderOrder(t, 1000, time.Date(2025, time.June, 11, 0, 30, 0, 0, shanghai))

	rem := sales.Classify(o, now, shanghai)
	if rem.Kind != sales.ReminderUpcoming || rem.Days != 1 {
		t.Errorf("expected upcoming_due/1, got %s/%d", rem.Kind, rem.Days)
	}
}
