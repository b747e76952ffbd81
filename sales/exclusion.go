/*
exclusion.go - Post-hoc exclusion overlay for aggregate views

PURPOSE:
  Removes specific agents' contributions from cross-agent aggregates
  (leaderboards, totals) WITHOUT altering the agents' own data. An
  excluded agent still sees their own orders and commissions in full.

  The overlay is a function of (view, exclusions, viewer), not a filter
  baked into the rollup: the same underlying numbers serve both the
  filtered public view and the unfiltered self view.
*/
package sales

// ExclusionSet is the set of agent codes currently excluded from
// aggregate views.
type ExclusionSet map[string]bool

// NewExclusionSet builds a set from store entries, keeping active ones.
func NewExclusionSet(entries []ExclusionEntry) ExclusionSet {
	set := make(ExclusionSet, len(entries))
	for _, e := range entries {
		if e.Active {
			set[e.AgentCode] = true
		}
	}
	return set
}

// Excluded reports whether a code is in the set.
func (s ExclusionSet) Excluded(agentCode string) bool {
	return s[agentCode]
}

// ApplyExclusion filters excluded agents out of an aggregate view. The
// viewer's own row is never filtered: an excluded agent looking at their
// own figures sees them unfiltered.
func ApplyExclusion(view []*Stats, exclusions ExclusionSet, viewerCode string) []*Stats {
	if len(exclusions) == 0 {
		return view
	}
	filtered := make([]*Stats, 0, len(view))
	for _, row := range view {
		if exclusions.Excluded(row.AgentCode) && row.AgentCode != viewerCode {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}
