/*
service.go - Order service joining the state machine to the engine

PURPOSE:
  The one place that sequences a lifecycle transition with its side
  effects: entering confirmed_config triggers commission realization,
  and the updated order is persisted. Everything below this layer is a
  pure computation plus one conditional write.
*/
package sales

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// OrderService executes order operations against a store.
type OrderService struct {
	Orders    OrderStore
	Directory *Directory
	Engine    *Engine
	Logger    *log.Logger // optional
}

// NewOrderService wires an order service.
func NewOrderService(orders OrderStore, dir *Directory) *OrderService {
	return &OrderService{
		Orders:    orders,
		Directory: dir,
		Engine:    NewEngine(dir, orders),
	}
}

// Create opens an order in pending_payment. The sales code must resolve;
// an unknown code surfaces ErrCodeNotFound for the caller to soften into
// user-facing messaging.
func (s *OrderService) Create(ctx context.Context, id, salesCode string, amount decimal.Decimal, expiry time.Time, now time.Time) (*Order, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("order %s: negative amount %s", id, amount)
	}
	if _, err := s.Directory.Resolve(ctx, salesCode); err != nil {
		return nil, err
	}

	o := NewOrder(id, salesCode, amount, now)
	o.ExpiryTime = expiry
	if err := s.Orders.SaveOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Transition moves an order to the target status and persists it.
// Entering confirmed_config realizes commission through the engine; the
// returned result is nil for all other transitions.
func (s *OrderService) Transition(ctx context.Context, orderID string, to OrderStatus, now time.Time) (*Order, *CommissionResult, error) {
	o, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	wasRealized := o.Realized()
	if err := Transition(o, to, now); err != nil {
		return nil, nil, err
	}

	var result *CommissionResult
	if to == StatusConfirmedConfig && !wasRealized {
		result, err = s.Engine.RealizeByCode(ctx, o)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := s.Orders.SaveOrder(ctx, o); err != nil {
		return nil, nil, err
	}
	return o, result, nil
}

// MarkReminded acknowledges a reminder. This is the only mutator of the
// reminder flag; classification itself never writes.
func (s *OrderService) MarkReminded(ctx context.Context, orderID string, now time.Time) (*Order, error) {
	o, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.Orders.MarkReminded(ctx, orderID, now); err != nil {
		return nil, err
	}
	o.IsReminded = true
	o.RemindedAt = &now
	return o, nil
}

// ExpireDue sweeps active orders past their expiry time into expired.
// Returns the number of orders transitioned. Idempotent: re-running over
// the same set is harmless.
func (s *OrderService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	active, err := s.Orders.ListOrders(ctx, OrderFilter{Statuses: []OrderStatus{StatusActive}})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, o := range active {
		if !IsExpired(o, now) {
			continue
		}
		if err := Transition(o, StatusExpired, now); err != nil {
			s.logf("[Orders] expire %s: %v", o.ID, err)
			continue
		}
		if err := s.Orders.SaveOrder(ctx, o); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (s *OrderService) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
