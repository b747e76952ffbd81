/*
seed.go - Demo data loader for testing and demonstrations

PURPOSE:

	Populates the store with a realistic two-tier referral network and a
	handful of orders in various lifecycle stages. Useful for demos and
	for exercising the leaderboard and reminder views by hand.

WHAT IT CREATES:

	P100  primary agent at 40%
	S200  secondary agent under P100 at 25%
	I300  independent agent at 30%

	Orders:
	- one realized and active under S200 (commission + primary share)
	- one realized and active under P100 (direct commission only)
	- one realized under I300, expiring soon (reminder candidate)
	- one still pending payment under S200

USAGE VIA API:

	POST /api/seed

NOTE:

	Seeding writes on top of whatever is in the store. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: Endpoint wiring
  - sales/service.go: Lifecycle transitions used below
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/sales"
)

// SeedDemo loads the demo network and orders.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.Now()

	if err := h.seedAgents(ctx, now); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed agents", err)
		return
	}
	created, err := h.seedOrders(ctx, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed orders", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"agents": []string{"P100", "S200", "I300"},
		"orders": created,
	})
}

func (h *Handler) seedAgents(ctx context.Context, now time.Time) error {
	agents := []*sales.SalesAgent{
		{
			Code:           "P100",
			DisplayName:    "Pat Primary",
			Tier:           sales.TierPrimary,
			CommissionRate: decimal.NewFromFloat(0.40),
			CreatedAt:      now,
		},
		{
			Code:           "S200",
			DisplayName:    "Sam Secondary",
			Tier:           sales.TierSecondary,
			ParentCode:     "P100",
			CommissionRate: decimal.NewFromFloat(0.25),
			CreatedAt:      now,
		},
		{
			Code:           "I300",
			DisplayName:    "Iris Independent",
			Tier:           sales.TierIndependent,
			CommissionRate: decimal.NewFromFloat(0.30),
			CreatedAt:      now,
		},
	}
	for _, a := range agents {
		if err := h.Directory.Register(ctx, a); err != nil {
			return fmt.Errorf("register %s: %w", a.Code, err)
		}
	}
	return nil
}

func (h *Handler) seedOrders(ctx context.Context, now time.Time) ([]string, error) {
	type seedOrder struct {
		id        string
		salesCode string
		amount    float64
		expiry    time.Time
		// walk holds how far through the lifecycle to advance
		walk []sales.OrderStatus
	}

	activeWalk := []sales.OrderStatus{
		sales.StatusConfirmedPayment,
		sales.StatusPendingConfig,
		sales.StatusConfirmedConfig,
		sales.StatusActive,
	}

	orders := []seedOrder{
		{
			id: "demo-team-1", salesCode: "S200", amount: 1000,
			expiry: now.AddDate(1, 0, 0), walk: activeWalk,
		},
		{
			id: "demo-direct-1", salesCode: "P100", amount: 2500,
			expiry: now.AddDate(1, 0, 0), walk: activeWalk,
		},
		{
			id: "demo-expiring-1", salesCode: "I300", amount: 800,
			expiry: now.AddDate(0, 0, 5), walk: activeWalk,
		},
		{
			id: "demo-pending-1", salesCode: "S200", amount: 600,
			expiry: now.AddDate(1, 0, 0),
		},
	}

	created := make([]string, 0, len(orders))
	for _, so := range orders {
		if _, err := h.Orders.GetOrder(ctx, so.id); err == nil {
			continue // already seeded
		}
		if _, err := h.Service.Create(ctx, so.id, so.salesCode,
			decimal.NewFromFloat(so.amount), so.expiry, now); err != nil {
			return created, fmt.Errorf("create %s: %w", so.id, err)
		}
		for _, to := range so.walk {
			if _, _, err := h.Service.Transition(ctx, so.id, to, now); err != nil {
				return created, fmt.Errorf("transition %s to %s: %w", so.id, to, err)
			}
		}
		created = append(created, so.id)
	}
	return created, nil
}
