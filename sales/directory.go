/*
directory.go - Sales agent resolution and parent attribution

PURPOSE:
  Resolves an agent by code, its tier, and - for secondary agents - the
  primary agent that earns the rate differential on its orders. Exactly
  two tiers are modeled; deeper chains do not exist in this network.

GRACEFUL DEGRADATION:
  A secondary agent whose declared parent code cannot be resolved is
  treated as independent for computation purposes. That fallback is
  logged, not thrown: a broken directory row must not block an order
  from realizing its own commission.

SEE ALSO:
  - engine.go: Consumes Resolve/ResolveParent at realization
*/
package sales

import (
	"context"
	"fmt"
	"log"
)

// Directory resolves agents and their parent attribution.
type Directory struct {
	Agents AgentStore
	Logger *log.Logger // optional; falls back to the standard logger
}

// NewDirectory creates a directory over an agent store.
func NewDirectory(agents AgentStore) *Directory {
	return &Directory{Agents: agents}
}

// Resolve returns the agent for a code, or ErrCodeNotFound.
func (d *Directory) Resolve(ctx context.Context, code string) (*SalesAgent, error) {
	if code == "" {
		return nil, fmt.Errorf("empty code: %w", ErrCodeNotFound)
	}
	return d.Agents.GetAgent(ctx, code)
}

// ResolveParent returns the primary agent for a secondary agent, or nil
// for independent and primary agents. A secondary whose parent code does
// not resolve degrades to independent: the fallback is logged and nil is
// returned without error.
func (d *Directory) ResolveParent(ctx context.Context, agent *SalesAgent) (*SalesAgent, error) {
	if agent.Tier != TierSecondary || agent.ParentCode == "" {
		return nil, nil
	}

	parent, err := d.Agents.GetAgent(ctx, agent.ParentCode)
	if err != nil {
		if IsNotFound(err) {
			d.logf("[Directory] agent %s declares parent %s which does not resolve; treating as independent",
				agent.Code, agent.ParentCode)
			return nil, nil
		}
		return nil, err
	}
	return parent, nil
}

// Register normalizes the rate and saves the agent. The rate may arrive
// as a percentage or a fraction; it is stored canonically.
func (d *Directory) Register(ctx context.Context, a *SalesAgent) error {
	rate, err := NormalizeRate(a.CommissionRate)
	if err != nil {
		return err
	}
	a.CommissionRate = rate

	if a.Tier != TierSecondary {
		a.ParentCode = ""
	}
	return d.Agents.SaveAgent(ctx, a)
}

func (d *Directory) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
