package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/progression"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/store"
)

// Gauge tracks how many sessions are running.
type Gauge interface {
	SetActiveSessions(n int)
}

type running struct {
	session *Session
	cancel  context.CancelFunc
}

// Manager manages all running sessions, one per save key.
type Manager struct {
	ctx      context.Context
	graph    *progression.Graph
	oracle   Oracle
	store    store.SnapshotStore
	gauge    Gauge
	opts     []Option
	sessions map[string]*running // save key -> session
	mu       sync.Mutex
}

// NewManager creates a session manager. Sessions stop when ctx is cancelled.
// gauge may be nil.
func NewManager(ctx context.Context, graph *progression.Graph, o Oracle, st store.SnapshotStore, gauge Gauge, opts ...Option) *Manager {
	return &Manager{
		ctx:      ctx,
		graph:    graph,
		oracle:   o,
		store:    st,
		gauge:    gauge,
		opts:     opts,
		sessions: make(map[string]*running),
	}
}

// Join subscribes fn to the session for key, starting it from its stored
// snapshot if it isn't running.
func (m *Manager) Join(ctx context.Context, key, subscriberID string, fn func(Event)) (*Session, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.sessions[key]
	if !ok {
		r = m.start(ctx, key)
	}
	if err := r.session.Subscribe(ctx, subscriberID, fn); err != nil {
		if !ok {
			m.stopLocked(key, r)
		}
		return nil, err
	}
	return r.session, nil
}

// Leave unsubscribes subscriberID and stops the session once nobody is left.
func (m *Manager) Leave(ctx context.Context, key, subscriberID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.sessions[key]
	if !ok {
		return nil
	}
	n, err := r.session.Unsubscribe(ctx, subscriberID)
	if err != nil {
		return err
	}
	if n == 0 {
		m.stopLocked(key, r)
	}
	return nil
}

// Get returns the running session for key, or nil.
func (m *Manager) Get(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.sessions[key]; ok {
		return r.session
	}
	return nil
}

// Count returns the number of running sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops every session and waits for their final writes.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, r := range m.sessions {
		m.stopLocked(key, r)
	}
}

// start loads the snapshot for key and runs a new session. A snapshot that
// fails to load is logged and replaced by defaults.
// Caller must hold m.mu.
func (m *Manager) start(ctx context.Context, key string) *running {
	snap := game.DefaultSnapshot()
	if m.store != nil {
		found, err := m.store.Load(ctx, key, &snap)
		if err != nil {
			slog.Error("failed to load snapshot, starting fresh", "session", key, "error", err)
			snap = game.DefaultSnapshot()
		} else if !found {
			slog.Info("no snapshot stored, starting fresh", "session", key)
		}
	}

	sess := New(key, snap, m.graph, m.oracle, m.store, m.opts...)
	runCtx, cancel := context.WithCancel(m.ctx)
	go sess.Run(runCtx)

	r := &running{session: sess, cancel: cancel}
	m.sessions[key] = r
	m.updateGauge()
	return r
}

// stopLocked cancels a session and waits until its last snapshot is written.
// Caller must hold m.mu.
func (m *Manager) stopLocked(key string, r *running) {
	r.cancel()
	<-r.session.Stopped()
	delete(m.sessions, key)
	m.updateGauge()
}

func (m *Manager) updateGauge() {
	if m.gauge != nil {
		m.gauge.SetActiveSessions(len(m.sessions))
	}
}
