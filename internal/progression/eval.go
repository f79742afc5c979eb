package progression

import "github.com/phills76/Dragon-Ball-Radar-2/internal/game"

// Status describes a node from the player's point of view.
type Status string

const (
	// StatusLocked means the prerequisite is not met.
	StatusLocked Status = "locked"
	// StatusAvailable means the node can be granted once its cost is paid.
	StatusAvailable Status = "available"
	// StatusOwned means granting the node would change nothing.
	StatusOwned Status = "owned"
)

// NodeStatus is one row of Evaluate's result.
type NodeStatus struct {
	ID          NodeID `json:"id"`
	Kind        Kind   `json:"kind"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	Reason      string `json:"reason,omitempty"`
	// Affordable is true for cosmetic nodes and for gated nodes while a
	// full target set is found.
	Affordable bool `json:"affordable"`
}

// Met reports whether r holds for m.
func (r Requirement) Met(m *game.Modifiers) bool {
	if r.Race != "" && m.ActiveRace.String() != r.Race {
		return false
	}
	if r.RadiusAtMostKm > 0 && m.CollectionRadiusKm > r.RadiusAtMostKm {
		return false
	}
	for _, f := range r.Features {
		if !m.HasFeature(f) {
			return false
		}
	}
	return true
}

// Evaluate reports the status of every node in topological order. It does
// not mutate anything.
func (g *Graph) Evaluate(m *game.Modifiers, targets []game.Target) []NodeStatus {
	paid := game.AllFound(targets)
	out := make([]NodeStatus, 0, len(g.TopoOrder))
	for _, id := range g.TopoOrder {
		n := g.Nodes[id]
		st := NodeStatus{
			ID:          n.ID,
			Kind:        n.Kind,
			Label:       n.Label,
			Description: n.Description,
			Affordable:  n.Kind == KindCosmetic || paid,
		}
		switch {
		case owned(n, m):
			st.Status = StatusOwned
		case n.Kind == KindGated && !n.Requires.Met(m):
			st.Status = StatusLocked
			st.Reason = n.Unmet
		default:
			st.Status = StatusAvailable
		}
		out = append(out, st)
	}
	return out
}

// owned reports whether applying n to m would change nothing.
func owned(n *Node, m *game.Modifiers) bool {
	if n.OneTime {
		return m.HasFeature(string(n.ID))
	}
	probe := m.Clone()
	return !apply(n, &probe)
}

// apply mutates m with n's effect and reports whether anything changed.
// Races and the radius only move forward; features are only added.
func apply(n *Node, m *game.Modifiers) bool {
	changed := false
	e := n.Effect
	if e.Design != "" {
		if d, ok := game.ParseDesign(e.Design); ok && d != m.ActiveDesign {
			m.ActiveDesign = d
			changed = true
		}
	}
	if e.Race != "" {
		// Races only ascend; a lower tier is already owned.
		if r, ok := game.ParseRace(e.Race); ok && r > m.ActiveRace {
			m.ActiveRace = r
			changed = true
		}
	}
	if e.RadiusKm > 0 && m.TightenRadius(e.RadiusKm) {
		changed = true
	}
	if e.Feature != "" && !m.HasFeature(e.Feature) {
		m.Unlock(e.Feature)
		changed = true
	}
	if n.OneTime && !m.HasFeature(string(n.ID)) {
		m.Unlock(string(n.ID))
		changed = true
	}
	return changed
}
