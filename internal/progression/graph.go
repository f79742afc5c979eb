// Package progression implements the wish tree: a declarative table of
// cosmetic and gated nodes, validated as a DAG when it is loaded.
//
// Gated nodes cost a full set of found targets and carry a prerequisite over
// the current modifiers. Cosmetic nodes are free selections. Edges between
// nodes are derived from prerequisites, never written by hand, so adding a
// tier only means adding a row to the table.
package progression

import (
	"errors"
	"fmt"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
)

// NodeID uniquely identifies a node in the graph.
type NodeID string

// Kind categorizes the node type.
type Kind string

const (
	// KindCosmetic nodes are free and have no prerequisite.
	KindCosmetic Kind = "cosmetic"
	// KindGated nodes spend a full target set and may have a prerequisite.
	KindGated Kind = "gated"
)

// Requirement is the declarative prerequisite of a gated node. Every set
// field must hold; the zero value always holds.
type Requirement struct {
	Race           string   `yaml:"race,omitempty" json:"race,omitempty"`
	RadiusAtMostKm float64  `yaml:"radius_at_most_km,omitempty" json:"radius_at_most_km,omitempty"`
	Features       []string `yaml:"features,omitempty" json:"features,omitempty"`
}

// IsZero reports whether the requirement is empty.
func (r Requirement) IsZero() bool {
	return r.Race == "" && r.RadiusAtMostKm == 0 && len(r.Features) == 0
}

// Effect is the modifier mutation a node applies when granted.
type Effect struct {
	Design   string  `yaml:"design,omitempty" json:"design,omitempty"`
	Race     string  `yaml:"race,omitempty" json:"race,omitempty"`
	RadiusKm float64 `yaml:"radius_km,omitempty" json:"radius_km,omitempty"`
	Feature  string  `yaml:"feature,omitempty" json:"feature,omitempty"`
}

// IsZero reports whether the effect changes nothing.
func (e Effect) IsZero() bool {
	return e.Design == "" && e.Race == "" && e.RadiusKm == 0 && e.Feature == ""
}

// Node is one row of the wish table.
type Node struct {
	ID          NodeID      `yaml:"id" json:"id"`
	Kind        Kind        `yaml:"kind" json:"kind"`
	Label       string      `yaml:"label" json:"label"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Unmet       string      `yaml:"unmet,omitempty" json:"unmet,omitempty"` // shown when Requires fails
	Requires    Requirement `yaml:"requires,omitempty" json:"requires,omitempty"`
	Effect      Effect      `yaml:"effect" json:"effect"`
	OneTime     bool        `yaml:"one_time,omitempty" json:"one_time,omitempty"`
}

// Graph is a validated wish table.
type Graph struct {
	Nodes      map[NodeID]*Node
	DependsOn  map[NodeID][]NodeID // derived prerequisite edges
	RequiresIn map[NodeID][]NodeID // reverse index: which nodes depend on this one
	TopoOrder  []NodeID            // dependencies first, ties in declaration order
}

var (
	// ErrCycleDetected is returned when prerequisites form a cycle.
	ErrCycleDetected = errors.New("progression: cycle detected in graph")
	// ErrInvalidNode is returned for a malformed node definition.
	ErrInvalidNode = errors.New("progression: invalid node")
	// ErrUnsatisfiable is returned when a prerequisite names something no node produces.
	ErrUnsatisfiable = errors.New("progression: prerequisite cannot be satisfied")
)

// NewGraph indexes and validates nodes.
func NewGraph(nodes []*Node) (*Graph, error) {
	g := &Graph{
		Nodes:      make(map[NodeID]*Node, len(nodes)),
		DependsOn:  make(map[NodeID][]NodeID),
		RequiresIn: make(map[NodeID][]NodeID),
	}

	order := make([]NodeID, 0, len(nodes))
	for _, n := range nodes {
		if err := validateNode(n); err != nil {
			return nil, err
		}
		if _, dup := g.Nodes[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidNode, n.ID)
		}
		g.Nodes[n.ID] = n
		order = append(order, n.ID)
	}

	for _, id := range order {
		deps, err := g.producersFor(g.Nodes[id])
		if err != nil {
			return nil, err
		}
		g.DependsOn[id] = deps
		for _, dep := range deps {
			g.RequiresIn[dep] = append(g.RequiresIn[dep], id)
		}
	}

	topo, err := g.topoSort(order)
	if err != nil {
		return nil, err
	}
	g.TopoOrder = topo
	return g, nil
}

// GetNode returns a node by ID, or nil if not found.
func (g *Graph) GetNode(id NodeID) *Node {
	return g.Nodes[id]
}

func validateNode(n *Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidNode)
	}
	if n.Effect.IsZero() {
		return fmt.Errorf("%w: node %s has no effect", ErrInvalidNode, n.ID)
	}
	if n.Effect.Design != "" {
		if _, ok := game.ParseDesign(n.Effect.Design); !ok {
			return fmt.Errorf("%w: node %s sets unknown design %q", ErrInvalidNode, n.ID, n.Effect.Design)
		}
	}
	if n.Effect.Race != "" {
		if _, ok := game.ParseRace(n.Effect.Race); !ok {
			return fmt.Errorf("%w: node %s sets unknown race %q", ErrInvalidNode, n.ID, n.Effect.Race)
		}
	}
	if n.Effect.RadiusKm < 0 || n.Requires.RadiusAtMostKm < 0 {
		return fmt.Errorf("%w: node %s has a negative radius", ErrInvalidNode, n.ID)
	}

	switch n.Kind {
	case KindCosmetic:
		if !n.Requires.IsZero() || n.OneTime {
			return fmt.Errorf("%w: cosmetic node %s cannot be gated", ErrInvalidNode, n.ID)
		}
		if n.Effect.Race != "" || n.Effect.RadiusKm != 0 || n.Effect.Feature != "" {
			return fmt.Errorf("%w: cosmetic node %s may only change the design", ErrInvalidNode, n.ID)
		}
	case KindGated:
		if !n.Requires.IsZero() && n.Unmet == "" {
			return fmt.Errorf("%w: node %s needs an unmet message", ErrInvalidNode, n.ID)
		}
		if n.Requires.Race != "" {
			if _, ok := game.ParseRace(n.Requires.Race); !ok {
				return fmt.Errorf("%w: node %s requires unknown race %q", ErrInvalidNode, n.ID, n.Requires.Race)
			}
		}
	default:
		return fmt.Errorf("%w: node %s has unknown kind %q", ErrInvalidNode, n.ID, n.Kind)
	}
	return nil
}

// producersFor derives the prerequisite edges of n: for each requirement,
// the node that first makes it true.
func (g *Graph) producersFor(n *Node) ([]NodeID, error) {
	var deps []NodeID
	req := n.Requires

	if req.Race != "" && req.Race != game.RaceHuman.String() {
		dep, ok := g.findProducer(n.ID, func(o *Node) bool { return o.Effect.Race == req.Race })
		if !ok {
			return nil, fmt.Errorf("%w: node %s requires race %s", ErrUnsatisfiable, n.ID, req.Race)
		}
		deps = append(deps, dep)
	}

	for _, f := range req.Features {
		dep, ok := g.findProducer(n.ID, func(o *Node) bool {
			return o.Effect.Feature == f || (o.OneTime && string(o.ID) == f)
		})
		if !ok {
			return nil, fmt.Errorf("%w: node %s requires feature %s", ErrUnsatisfiable, n.ID, f)
		}
		deps = append(deps, dep)
	}

	if x := req.RadiusAtMostKm; x > 0 && x < game.DefaultCollectionRadiusKm {
		// The loosest radius that still satisfies the bound is the tier
		// that unlocks this node.
		var best *Node
		for _, o := range g.Nodes {
			if o.ID == n.ID || o.Effect.RadiusKm <= 0 || o.Effect.RadiusKm > x {
				continue
			}
			if best == nil || o.Effect.RadiusKm > best.Effect.RadiusKm ||
				(o.Effect.RadiusKm == best.Effect.RadiusKm && o.ID < best.ID) {
				best = o
			}
		}
		if best == nil {
			return nil, fmt.Errorf("%w: node %s requires radius <= %.3f km", ErrUnsatisfiable, n.ID, x)
		}
		deps = append(deps, best.ID)
	}

	return deps, nil
}

func (g *Graph) findProducer(self NodeID, match func(*Node) bool) (NodeID, bool) {
	var found NodeID
	for id, o := range g.Nodes {
		if id == self || !match(o) {
			continue
		}
		if found == "" || id < found {
			found = id
		}
	}
	return found, found != ""
}

// topoSort performs topological sorting using Kahn's algorithm to detect cycles.
func (g *Graph) topoSort(declared []NodeID) ([]NodeID, error) {
	inDegree := make(map[NodeID]int, len(g.Nodes))
	for _, id := range declared {
		inDegree[id] = len(g.DependsOn[id])
	}

	var queue []NodeID
	for _, id := range declared {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]NodeID, 0, len(declared))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		for _, depID := range g.RequiresIn[curr] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, ErrCycleDetected
	}
	return order, nil
}
