// Package session owns the game state of one save. A Session is an actor:
// Run executes every command on one goroutine, and oracle requests running
// elsewhere post their results back as commands.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/oracle"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/progression"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/store"
)

const tracerName = "github.com/phills76/Dragon-Ball-Radar-2/internal/session"

// saveTimeout bounds a single snapshot write.
const saveTimeout = 5 * time.Second

var (
	// ErrNoEffectiveCenter is returned when a scan needs a center and there is
	// neither a position fix nor a center override.
	ErrNoEffectiveCenter = errors.New("location required")
	// ErrUnknownTarget is returned when relocating a target that doesn't exist.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrFeatureLocked is returned when scan parameters need a feature the
	// player has not unlocked.
	ErrFeatureLocked = errors.New("feature locked")
	// ErrInvalidScan is returned for a non-positive range or an invalid center.
	ErrInvalidScan = errors.New("invalid scan parameters")
	// ErrInvalidPosition is returned for an out-of-range position fix.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrClosed is returned once the session has stopped.
	ErrClosed = errors.New("session closed")
)

// Oracle is the part of oracle.Client a session uses.
type Oracle interface {
	RequestCandidates(ctx context.Context, center geo.Coordinate, rangeKm float64) oracle.Batch
	RequestRelocation(ctx context.Context, center geo.Coordinate, rangeKm float64, starCount int) oracle.Placement
}

// Recorder receives gameplay metrics.
type Recorder interface {
	TargetsCollected(n int)
	WishGranted(node string, consumed bool)
	SnapshotSaveFailed()
	StaleResponseDropped()
}

type nopRecorder struct{}

func (nopRecorder) TargetsCollected(int)     {}
func (nopRecorder) WishGranted(string, bool) {}
func (nopRecorder) SnapshotSaveFailed()      {}
func (nopRecorder) StaleResponseDropped()    {}

// Session is the single owner of one save's state.
type Session struct {
	key      string
	graph    *progression.Graph
	oracle   Oracle
	store    store.SnapshotStore
	recorder Recorder
	tracer   trace.Tracer

	cmds    chan func()
	saves   chan game.Snapshot // coalescing: holds at most the latest snapshot
	done    chan struct{}      // closed when the loop stops taking commands
	stopped chan struct{}      // closed after the last snapshot is written

	// Owned by the Run goroutine.
	runCtx      context.Context
	snap        game.Snapshot
	position    *game.Position
	generation  uint64 // bumped when a refresh starts or a set is spent
	setID       uint64 // bumped whenever the target set is replaced
	inflight    int
	subscribers map[string]func(Event)
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New creates a session over snap. snap is normalized first; call Run to
// start it.
func New(key string, snap game.Snapshot, graph *progression.Graph, o Oracle, st store.SnapshotStore, opts ...Option) *Session {
	snap.Normalize()
	s := &Session{
		key:         key,
		graph:       graph,
		oracle:      o,
		store:       st,
		recorder:    nopRecorder{},
		tracer:      otel.Tracer(tracerName),
		cmds:        make(chan func()),
		saves:       make(chan game.Snapshot, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		snap:        snap,
		subscribers: make(map[string]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the save key.
func (s *Session) Key() string {
	return s.key
}

// Stopped is closed once Run has returned and the final snapshot is written.
func (s *Session) Stopped() <-chan struct{} {
	return s.stopped
}

// Run executes commands until ctx is cancelled. It must be called once.
func (s *Session) Run(ctx context.Context) {
	s.runCtx = ctx

	persisted := make(chan struct{})
	go func() {
		defer close(persisted)
		s.persistLoop()
	}()

	slog.Info("session started", "session", s.key)

	for {
		select {
		case fn := <-s.cmds:
			fn()
		case <-ctx.Done():
			close(s.done)
			close(s.saves)
			<-persisted
			slog.Info("session stopped", "session", s.key)
			close(s.stopped)
			return
		}
	}
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		fn()
	}

	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// post queues fn without waiting. It is dropped if the session has stopped.
func (s *Session) post(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.done:
	}
}
