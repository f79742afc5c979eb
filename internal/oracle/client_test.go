package oracle

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
)

// mockSource implements Source for testing.
type mockSource struct {
	candidates []Candidate
	relocation Candidate
	err        error
	lastReq    Request
}

func (m *mockSource) Candidates(_ context.Context, req Request) ([]Candidate, error) {
	m.lastReq = req
	return m.candidates, m.err
}

func (m *mockSource) Relocation(_ context.Context, req Request) (Candidate, error) {
	m.lastReq = req
	return m.relocation, m.err
}

type observation struct {
	kind     string
	fallback bool
}

type mockRecorder struct {
	seen []observation
}

func (r *mockRecorder) ObserveOracle(kind string, fallback bool, _ time.Duration) {
	r.seen = append(r.seen, observation{kind, fallback})
}

func ptr(f float64) *float64 { return &f }

func candidate(name string, lat, lng float64) Candidate {
	return Candidate{Name: name, Lat: ptr(lat), Lng: ptr(lng)}
}

func validCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = candidate("Park", 37.5+float64(i)*0.001, 127.0)
	}
	return out
}

var seoul = geo.Coordinate{Lat: 37.5665, Lng: 126.9780}

func newTestClient(src Source, rec Recorder) *Client {
	opts := []Option{WithRand(rand.New(rand.NewSource(1)))}
	if rec != nil {
		opts = append(opts, WithRecorder(rec))
	}
	return NewClient(src, opts...)
}

func assertFullSet(t *testing.T, targets []game.Target) {
	t.Helper()
	require.Len(t, targets, game.TargetCount)
	for i, tg := range targets {
		assert.Equal(t, i+1, tg.ID)
		assert.Equal(t, i+1, tg.StarCount)
		assert.False(t, tg.Found)
		assert.True(t, tg.Coordinate.Valid())
		assert.NotEmpty(t, tg.DisplayName)
	}
}

func TestRequestCandidates_OK(t *testing.T) {
	src := &mockSource{candidates: validCandidates(9)}
	rec := &mockRecorder{}
	c := newTestClient(src, rec)

	batch := c.RequestCandidates(context.Background(), seoul, 5)

	assert.False(t, batch.Fallback)
	assertFullSet(t, batch.Targets)
	assert.Equal(t, "Park", batch.Targets[0].DisplayName)
	assert.Equal(t, []observation{{KindCandidates, false}}, rec.seen)

	assert.Equal(t, ModeLocal, src.lastReq.Mode)
	assert.Equal(t, game.TargetCount, src.lastReq.Count)
	assert.NotEmpty(t, src.lastReq.ID)
	assert.Equal(t, Constraints, src.lastReq.Constraints)
}

func TestRequestCandidates_GlobalMode(t *testing.T) {
	src := &mockSource{candidates: validCandidates(7)}
	c := newTestClient(src, nil)

	c.RequestCandidates(context.Background(), seoul, game.GlobalRangeKm+1)
	assert.Equal(t, ModeGlobal, src.lastReq.Mode)

	c.RequestCandidates(context.Background(), seoul, game.GlobalRangeKm)
	assert.Equal(t, ModeLocal, src.lastReq.Mode)
}

func TestRequestCandidates_DropsMalformedItems(t *testing.T) {
	items := validCandidates(7)
	items = append([]Candidate{
		{Name: "no coords"},
		candidate("   ", 1, 1),
		candidate("off the map", 91, 0),
	}, items...)
	src := &mockSource{candidates: items}
	c := newTestClient(src, nil)

	batch := c.RequestCandidates(context.Background(), seoul, 5)
	assert.False(t, batch.Fallback)
	assertFullSet(t, batch.Targets)
}

func TestRequestCandidates_FallbackTotality(t *testing.T) {
	tests := []struct {
		name string
		src  Source
	}{
		{"no source", nil},
		{"network error", &mockSource{err: ErrOracleUnavailable}},
		{"arbitrary error", &mockSource{err: errors.New("boom")}},
		{"too few", &mockSource{candidates: validCandidates(6)}},
		{"empty", &mockSource{candidates: []Candidate{}}},
		{"all malformed", &mockSource{candidates: []Candidate{{}, {}, {}, {}, {}, {}, {}}}},
	}

	centers := []geo.Coordinate{seoul, {Lat: 89.9, Lng: 179.9}, {Lat: -45, Lng: -180}}
	ranges := []float64{0, 0.5, 5, 5000}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecorder{}
			c := newTestClient(tt.src, rec)
			for _, center := range centers {
				for _, r := range ranges {
					batch := c.RequestCandidates(context.Background(), center, r)
					assert.True(t, batch.Fallback)
					assertFullSet(t, batch.Targets)
					assert.Equal(t, "Dragon Ball 1", batch.Targets[0].DisplayName)
				}
			}
			assert.Equal(t, observation{KindCandidates, true}, rec.seen[0])
		})
	}
}

func TestRequestRelocation_OK(t *testing.T) {
	src := &mockSource{relocation: candidate("  Fountain ", 37.56, 126.97)}
	rec := &mockRecorder{}
	c := newTestClient(src, rec)

	p := c.RequestRelocation(context.Background(), seoul, 5, 4)

	assert.False(t, p.Fallback)
	assert.Equal(t, "Fountain", p.DisplayName)
	assert.Equal(t, geo.Coordinate{Lat: 37.56, Lng: 126.97}, p.Coordinate)
	assert.Equal(t, 4, src.lastReq.StarCount)
	assert.Equal(t, 1, src.lastReq.Count)
	assert.Equal(t, []observation{{KindRelocation, false}}, rec.seen)
}

func TestRequestRelocation_Fallback(t *testing.T) {
	tests := []struct {
		name string
		src  Source
	}{
		{"no source", nil},
		{"error", &mockSource{err: ErrOracleUnavailable}},
		{"missing name", &mockSource{relocation: candidate("", 1, 1)}},
		{"missing lat", &mockSource{relocation: Candidate{Name: "x", Lng: ptr(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(tt.src, nil)
			p := c.RequestRelocation(context.Background(), seoul, 2, 3)
			assert.True(t, p.Fallback)
			assert.Equal(t, RelocationPlaceholder, p.DisplayName)
			assert.Less(t, geo.HaversineKm(seoul, p.Coordinate), 2.0*1.01)
		})
	}
}

func TestFallback_Deterministic(t *testing.T) {
	a := Fallback(seoul, 5, rand.New(rand.NewSource(99)))
	b := Fallback(seoul, 5, rand.New(rand.NewSource(99)))
	assert.Equal(t, a, b)

	for _, tg := range a {
		assert.Less(t, geo.HaversineKm(seoul, tg.Coordinate), 5*1.01)
	}
}

func TestValidCandidate_TruncatesLongNames(t *testing.T) {
	long := make([]rune, maxNameLength+20)
	for i := range long {
		long[i] = '가'
	}
	_, name, ok := validCandidate(candidate(string(long), 0, 0))
	require.True(t, ok)
	assert.Len(t, []rune(name), maxNameLength)
}
