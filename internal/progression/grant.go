package progression

import (
	"errors"
	"fmt"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
)

var (
	// ErrUnknownNode is returned when granting a node that isn't in the table.
	ErrUnknownNode = errors.New("progression: unknown wish")
	// ErrInsufficientTargets is returned when a gated wish is made without a full found set.
	ErrInsufficientTargets = errors.New("progression: all seven targets must be found")
	// ErrPrerequisiteNotMet is returned when a gated node's prerequisite fails.
	ErrPrerequisiteNotMet = errors.New("progression: prerequisite not met")
	// ErrAlreadyUnlocked is returned when a gated wish would change nothing.
	ErrAlreadyUnlocked = errors.New("progression: wish already granted")
)

// PrerequisiteError carries the node's own explanation of what is missing.
type PrerequisiteError struct {
	Node   NodeID
	Reason string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("progression: %s: %s", e.Node, e.Reason)
}

func (e *PrerequisiteError) Unwrap() error {
	return ErrPrerequisiteNotMet
}

// Grant is the outcome of a successful wish.
type Grant struct {
	Node *Node
	// Consumed is true when the wish spent the target set; the caller must
	// clear it.
	Consumed bool
}

// Grant validates and applies the wish id against m. Cosmetic nodes skip
// the cost and prerequisite checks. Gated nodes check the cost first, then
// ownership, then the prerequisite. m is only mutated on success.
func (g *Graph) Grant(id NodeID, m *game.Modifiers, targets []game.Target) (Grant, error) {
	n := g.GetNode(id)
	if n == nil {
		return Grant{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	if n.Kind == KindCosmetic {
		apply(n, m)
		return Grant{Node: n}, nil
	}

	if !game.AllFound(targets) {
		return Grant{}, fmt.Errorf("%w: %d of %d found", ErrInsufficientTargets, game.FoundCount(targets), game.TargetCount)
	}
	if owned(n, m) {
		return Grant{}, fmt.Errorf("%w: %s", ErrAlreadyUnlocked, id)
	}
	if !n.Requires.Met(m) {
		return Grant{}, &PrerequisiteError{Node: n.ID, Reason: n.Unmet}
	}

	apply(n, m)
	return Grant{Node: n, Consumed: true}, nil
}
