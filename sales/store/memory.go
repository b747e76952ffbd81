// Package store provides in-memory implementations of the sales
// persistence interfaces, for testing and development.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/commission-engine/sales"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements sales.OrderStore, sales.AgentStore and
// sales.ExclusionStore behind one mutex.
type Memory struct {
	mu         sync.RWMutex
	orders     map[string]*sales.Order
	agents     map[string]*sales.SalesAgent
	exclusions map[string]sales.ExclusionEntry
}

func NewMemory() *Memory {
	return &Memory{
		orders:     make(map[string]*sales.Order),
		agents:     make(map[string]*sales.SalesAgent),
		exclusions: make(map[string]sales.ExclusionEntry),
	}
}

var (
	_ sales.OrderStore     = (*Memory)(nil)
	_ sales.AgentStore     = (*Memory)(nil)
	_ sales.ExclusionStore = (*Memory)(nil)
)

// =============================================================================
// ORDER STORE
// =============================================================================

func (m *Memory) GetOrder(_ context.Context, id string) (*sales.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, sales.ErrOrderNotFound)
	}
	cp := *o
	return &cp, nil
}

func (m *Memory) SaveOrder(_ context.Context, o *sales.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *o
	if existing, ok := m.orders[o.ID]; ok && existing.CommissionRateSnapshot != nil {
		// Realized commission fields are immutable; keep the stored ones.
		cp.CommissionRateSnapshot = existing.CommissionRateSnapshot
		cp.CommissionAmount = existing.CommissionAmount
		cp.PrimaryShareAmount = existing.PrimaryShareAmount
	}
	m.orders[o.ID] = &cp
	return nil
}

func (m *Memory) ListOrders(_ context.Context, f sales.OrderFilter) ([]*sales.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*sales.Order
	for _, o := range m.orders {
		if f.Matches(o) {
			cp := *o
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StatTime().Before(result[j].StatTime())
	})
	return result, nil
}

// ConditionalSetCommission applies the write only if the commission
// fields are currently null. Check and write are atomic under the lock.
func (m *Memory) ConditionalSetCommission(_ context.Context, id string, f sales.CommissionFields) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return false, fmt.Errorf("order %s: %w", id, sales.ErrOrderNotFound)
	}
	if o.CommissionRateSnapshot != nil {
		return false, nil
	}

	rate := f.RateSnapshot
	amount := f.CommissionAmount
	o.CommissionRateSnapshot = &rate
	o.CommissionAmount = &amount
	if f.PrimaryShareAmount != nil {
		share := *f.PrimaryShareAmount
		o.PrimaryShareAmount = &share
	}
	if o.EffectiveTime.IsZero() {
		o.EffectiveTime = f.EffectiveTime
	}
	return true, nil
}

func (m *Memory) MarkReminded(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, sales.ErrOrderNotFound)
	}
	o.IsReminded = true
	o.RemindedAt = &at
	return nil
}

// =============================================================================
// AGENT STORE
// =============================================================================

func (m *Memory) GetAgent(_ context.Context, code string) (*sales.SalesAgent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.agents[code]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", code, sales.ErrCodeNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) SaveAgent(_ context.Context, a *sales.SalesAgent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *a
	m.agents[a.Code] = &cp
	return nil
}

func (m *Memory) ListAgents(_ context.Context) ([]*sales.SalesAgent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*sales.SalesAgent, 0, len(m.agents))
	for _, a := range m.agents {
		cp := *a
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// =============================================================================
// EXCLUSION STORE
// =============================================================================

func (m *Memory) ListActive(_ context.Context) ([]sales.ExclusionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []sales.ExclusionEntry
	for _, e := range m.exclusions {
		if e.Active {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AgentCode < result[j].AgentCode })
	return result, nil
}

func (m *Memory) SetExclusion(_ context.Context, e sales.ExclusionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exclusions[e.AgentCode] = e
	return nil
}

func (m *Memory) RemoveExclusion(_ context.Context, agentCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.exclusions[agentCode]
	if !ok {
		return nil
	}
	e.Active = false
	m.exclusions[agentCode] = e
	return nil
}
