package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/oracle"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/progression"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/store"
)

var home = geo.Coordinate{Lat: 37.5665, Lng: 126.9780}

// northOf returns the point km kilometres due north of c.
func northOf(c geo.Coordinate, km float64) geo.Coordinate {
	return geo.Coordinate{Lat: c.Lat + km/(geo.EarthRadiusKm*math.Pi/180), Lng: c.Lng}
}

// fakeOracle places target i at i*spacingKm north of the center. When hold
// is set every request blocks until released.
type fakeOracle struct {
	mu        sync.Mutex
	spacingKm float64
	hold      bool
	gates     []chan struct{}
	calls     int
	placement oracle.Placement
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{spacingKm: 0.5}
}

func (f *fakeOracle) wait() int {
	f.mu.Lock()
	f.calls++
	call := f.calls
	var gate chan struct{}
	if f.hold {
		gate = make(chan struct{})
		f.gates = append(f.gates, gate)
	}
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return call
}

// waitHeld waits until n requests are blocked.
func (f *fakeOracle) waitHeld(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.gates) >= n
	}, time.Second, time.Millisecond)
}

// release unblocks the n-th held request (0-based).
func (f *fakeOracle) release(t *testing.T, n int) {
	t.Helper()
	f.waitHeld(t, n+1)
	f.mu.Lock()
	close(f.gates[n])
	f.mu.Unlock()
}

func (f *fakeOracle) RequestCandidates(_ context.Context, center geo.Coordinate, _ float64) oracle.Batch {
	call := f.wait()
	targets := make([]game.Target, game.TargetCount)
	for i := range targets {
		targets[i] = game.Target{
			ID:          i + 1,
			StarCount:   i + 1,
			Coordinate:  northOf(center, float64(i+1)*f.spacingKm),
			DisplayName: fmt.Sprintf("call %d", call),
		}
	}
	return oracle.Batch{Targets: targets}
}

func (f *fakeOracle) RequestRelocation(_ context.Context, _ geo.Coordinate, _ float64, _ int) oracle.Placement {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.placement
}

type mockRecorder struct {
	mu           sync.Mutex
	collected    int
	wishes       []string
	saveFailures int
	stale        int
}

func (r *mockRecorder) TargetsCollected(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collected += n
}

func (r *mockRecorder) WishGranted(node string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wishes = append(r.wishes, node)
}

func (r *mockRecorder) SnapshotSaveFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveFailures++
}

func (r *mockRecorder) StaleResponseDropped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale++
}

func (r *mockRecorder) counts() (collected, saveFailures, stale int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collected, r.saveFailures, r.stale
}

// failingStore implements store.SnapshotStore and rejects every write.
type failingStore struct{}

func (failingStore) Load(context.Context, string, *game.Snapshot) (bool, error) {
	return false, errors.New("disk on fire")
}

func (failingStore) Save(context.Context, string, *game.Snapshot) error {
	return errors.New("disk on fire")
}

func (failingStore) Close() error { return nil }

// eventLog collects events delivered to a subscriber.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) handle(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(typ EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func testGraph(t *testing.T) *progression.Graph {
	t.Helper()
	g, err := progression.DefaultGraph()
	require.NoError(t, err)
	return g
}

func startSession(t *testing.T, snap game.Snapshot, o Oracle, st store.SnapshotStore, rec Recorder) *Session {
	t.Helper()
	s := New("test", snap, testGraph(t), o, st, WithRecorder(rec))
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Stopped()
	})
	return s
}

// waitIdle waits until no oracle request is in flight.
func waitIdle(t *testing.T, s *Session) View {
	t.Helper()
	var v View
	require.Eventually(t, func() bool {
		var err error
		v, err = s.View(context.Background())
		return err == nil && !v.Loading
	}, time.Second, time.Millisecond)
	return v
}

// refreshAt moves the player to c and loads a full target set there.
func refreshAt(t *testing.T, s *Session, c geo.Coordinate) View {
	t.Helper()
	ctx := context.Background()
	_, err := s.UpdatePlayerPosition(ctx, game.Position{Coordinate: c, AccuracyMeters: 5})
	require.NoError(t, err)
	require.NoError(t, s.RefreshTargets(ctx))
	v := waitIdle(t, s)
	require.Len(t, v.Targets, game.TargetCount)
	return v
}

// collectAll walks the player over every target.
func collectAll(t *testing.T, s *Session, targets []game.Target) {
	t.Helper()
	for _, tg := range targets {
		_, err := s.UpdatePlayerPosition(context.Background(), game.Position{Coordinate: tg.Coordinate})
		require.NoError(t, err)
	}
}
