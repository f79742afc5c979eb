package session

import (
	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
)

// EventType names what happened.
type EventType string

const (
	// EventState carries the full view after any change.
	EventState EventType = "state"
	// EventCollected carries the ids that were just found.
	EventCollected EventType = "collected"
	// EventWishReady fires once when the seventh target is found.
	EventWishReady EventType = "wish_ready"
)

// Event is delivered to subscribers on the session goroutine. Handlers must
// not block and must not call back into the session synchronously.
type Event struct {
	Type      EventType
	State     *View
	Collected []int
}

// View is a read-only copy of the session state.
type View struct {
	Key        string          `json:"save_key"`
	Targets    []game.Target   `json:"targets"`
	Position   *game.Position  `json:"position,omitempty"`
	Scan       game.ScanParams `json:"scan"`
	Modifiers  game.Modifiers  `json:"modifiers"`
	Features   []string        `json:"features"`
	Loading    bool            `json:"loading"`
	Generation uint64          `json:"generation"`
	FoundCount int             `json:"found_count"`
	WishReady  bool            `json:"wish_ready"`
}

func (s *Session) view() View {
	v := View{
		Key:        s.key,
		Targets:    game.CloneTargets(s.snap.Targets),
		Scan:       s.snap.Clone().Scan,
		Modifiers:  s.snap.Modifiers.Clone(),
		Features:   s.snap.Modifiers.Features(),
		Loading:    s.inflight > 0,
		Generation: s.generation,
		FoundCount: game.FoundCount(s.snap.Targets),
		WishReady:  game.AllFound(s.snap.Targets),
	}
	if v.Targets == nil {
		v.Targets = []game.Target{}
	}
	if s.position != nil {
		p := *s.position
		v.Position = &p
	}
	return v
}

func (s *Session) emit(ev Event) {
	for _, fn := range s.subscribers {
		fn(ev)
	}
}

func (s *Session) emitState() {
	if len(s.subscribers) == 0 {
		return
	}
	v := s.view()
	s.emit(Event{Type: EventState, State: &v})
}
