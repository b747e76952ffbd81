package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/sales"
)

func newServiceFixture(t *testing.T) (*fixture, *sales.OrderService) {
	t.Helper()
	f := newFixture(t)
	return f, sales.NewOrderService(f.store, f.dir)
}

func TestOrderService_CreateRequiresResolvableCode(t *testing.T) {
	_, svc := newServiceFixture(t)

	_, err := svc.Create(context.Background(), "ord-1", "NOBODY",
		decimal.NewFromInt(1000), time.Time{}, time.Now())
	if !sales.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestOrderService_CreateRejectsNegativeAmount(t *testing.T) {
	f, svc := newServiceFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)

	_, err := svc.Create(context.Background(), "ord-1", "P1",
		decimal.NewFromInt(-10), time.Time{}, time.Now())
	if err == nil {
		t.Fatal("expected an error for a negative amount")
	}
}

func TestOrderService_ConfirmConfigRealizesAndPersists(t *testing.T) {
	// GIVEN: An order walked to pending_config
	// WHEN: Confirming configuration
	// THEN: Commission realizes and both facts survive a re-read

	f, svc := newServiceFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)

	ctx := context.Background()
	now := time.Now()
	if _, err := svc.Create(ctx, "ord-1", "P1", decimal.NewFromInt(1000), time.Time{}, now); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, to := range []sales.OrderStatus{sales.StatusConfirmedPayment, sales.StatusPendingConfig} {
		if _, _, err := svc.Transition(ctx, "ord-1", to, now); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}

	_, result, err := svc.Transition(ctx, "ord-1", sales.StatusConfirmedConfig, now)
	if err != nil {
		t.Fatalf("confirm config: %v", err)
	}
	if result == nil {
		t.Fatal("expected a commission result")
	}
	requireEqual(t, 400, result.CommissionAmount, "commission")

	stored, err := f.store.GetOrder(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Realized() {
		t.Error("realization did not persist")
	}
	if stored.Status != sales.StatusConfirmedConfig {
		t.Errorf("status did not persist, got %s", stored.Status)
	}
}

func TestOrderService_NonRealizingTransitionsReturnNoResult(t *testing.T) {
	f, svc := newServiceFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)

	ctx := context.Background()
	now := time.Now()
	if _, err := svc.Create(ctx, "ord-1", "P1", decimal.NewFromInt(1000), time.Time{}, now); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, result, err := svc.Transition(ctx, "ord-1", sales.StatusConfirmedPayment, now)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if result != nil {
		t.Errorf("confirm payment must not realize, got %+v", result)
	}
}

func TestOrderService_MarkReminded(t *testing.T) {
	f, svc := newServiceFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)

	ctx := context.Background()
	now := time.Now()
	if _, err := svc.Create(ctx, "ord-1", "P1", decimal.NewFromInt(1000), time.Time{}, now); err != nil {
		t.Fatalf("create: %v", err)
	}

	o, err := svc.MarkReminded(ctx, "ord-1", now)
	if err != nil {
		t.Fatalf("mark reminded: %v", err)
	}
	if !o.IsReminded || o.RemindedAt == nil {
		t.Error("reminder flag not set")
	}

	stored, _ := f.store.GetOrder(ctx, "ord-1")
	if !stored.IsReminded {
		t.Error("reminder flag did not persist")
	}
}

func TestOrderService_ExpireDue(t *testing.T) {
	// GIVEN: One active order past expiry, one not, one with no expiry
	// WHEN: Sweeping
	// THEN: Exactly the overdue one flips; realized money is untouched

	f, svc := newServiceFixture(t)
	f.addAgent(t, "P1", sales.TierPrimary, "", 0.40)

	ctx := context.Background()
	now := time.Now()

	mk := func(id string, expiry time.Time) {
		if _, err := svc.Create(ctx, id, "P1", decimal.NewFromInt(1000), expiry, now); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
		for _, to := range []sales.OrderStatus{
			sales.StatusConfirmedPayment, sales.StatusPendingConfig,
			sales.StatusConfirmedConfig, sales.StatusActive,
		} {
			if _, _, err := svc.Transition(ctx, id, to, now); err != nil {
				t.Fatalf("transition %s to %s: %v", id, to, err)
			}
		}
	}

	mk("ord-overdue", now.Add(-time.Hour))
	mk("ord-current", now.Add(24*time.Hour))
	mk("ord-open", time.Time{})

	n, err := svc.ExpireDue(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}

	overdue, _ := f.store.GetOrder(ctx, "ord-overdue")
	if overdue.Status != sales.StatusExpired {
		t.Errorf("overdue order not expired, got %s", overdue.Status)
	}
	if !overdue.Realized() {
		t.Error("expiry must not erase realized commission")
	}

	current, _ := f.store.GetOrder(ctx, "ord-current")
	if current.Status != sales.StatusActive {
		t.Errorf("current order flipped to %s", current.Status)
	}

	// Second sweep is a no-op
	n, err = svc.ExpireDue(ctx, now)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep should expire nothing, got %d", n)
	}
}
