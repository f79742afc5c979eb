package oracle

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
)

const tracerName = "github.com/phills76/Dragon-Ball-Radar-2/internal/oracle"

// Request kinds, used as metric labels.
const (
	KindCandidates = "candidates"
	KindRelocation = "relocation"
)

// Recorder receives one observation per oracle request.
type Recorder interface {
	ObserveOracle(kind string, fallback bool, elapsed time.Duration)
}

// Batch is a full target set and whether it was synthesized locally.
type Batch struct {
	Targets  []game.Target
	Fallback bool
}

// Placement is a relocation result. The caller keeps the target's id and
// star count and only takes the coordinate and name.
type Placement struct {
	Coordinate  geo.Coordinate
	DisplayName string
	Fallback    bool
}

// Client is the total boundary around a Source: every call returns something
// usable.
type Client struct {
	source   Source
	recorder Recorder
	tracer   trace.Tracer

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Option configures a Client.
type Option func(*Client)

// WithRand sets the fallback random source.
func WithRand(rng *rand.Rand) Option {
	return func(c *Client) { c.rng = rng }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient wraps source. A nil source makes every call use the fallback.
func NewClient(source Source, opts ...Option) *Client {
	c := &Client{
		source: source,
		tracer: otel.Tracer(tracerName),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestCandidates returns seven targets around center. It never fails.
func (c *Client) RequestCandidates(ctx context.Context, center geo.Coordinate, rangeKm float64) Batch {
	start := time.Now()
	req := c.newRequest(center, rangeKm, game.TargetCount)

	ctx, span := c.tracer.Start(ctx, "oracle.candidates", trace.WithAttributes(requestAttrs(req)...))
	defer span.End()

	targets, err := c.candidates(ctx, req)
	if err != nil {
		slog.Warn("oracle candidates failed, using fallback",
			"request_id", req.ID, "mode", req.Mode, "range_km", rangeKm, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		targets = c.fallback(center, rangeKm)
	}

	fallback := err != nil
	span.SetAttributes(attribute.Bool("oracle.fallback", fallback))
	c.observe(KindCandidates, fallback, time.Since(start))
	return Batch{Targets: targets, Fallback: fallback}
}

// RequestRelocation returns one replacement place for the target with
// starCount. It never fails.
func (c *Client) RequestRelocation(ctx context.Context, center geo.Coordinate, rangeKm float64, starCount int) Placement {
	start := time.Now()
	req := c.newRequest(center, rangeKm, 1)
	req.StarCount = starCount

	ctx, span := c.tracer.Start(ctx, "oracle.relocation", trace.WithAttributes(requestAttrs(req)...))
	defer span.End()

	p, err := c.relocation(ctx, req)
	if err != nil {
		slog.Warn("oracle relocation failed, using fallback",
			"request_id", req.ID, "star_count", starCount, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.mu.Lock()
		p = FallbackPlacement(center, rangeKm, c.rng)
		c.mu.Unlock()
	}

	span.SetAttributes(attribute.Bool("oracle.fallback", p.Fallback))
	c.observe(KindRelocation, p.Fallback, time.Since(start))
	return p
}

func (c *Client) candidates(ctx context.Context, req Request) ([]game.Target, error) {
	if c.source == nil {
		return nil, ErrOracleUnavailable
	}
	raw, err := c.source.Candidates(ctx, req)
	if err != nil {
		return nil, err
	}
	return toTargets(raw)
}

func (c *Client) relocation(ctx context.Context, req Request) (Placement, error) {
	if c.source == nil {
		return Placement{}, ErrOracleUnavailable
	}
	raw, err := c.source.Relocation(ctx, req)
	if err != nil {
		return Placement{}, err
	}
	coord, name, ok := validCandidate(raw)
	if !ok {
		return Placement{}, ErrMalformedResponse
	}
	return Placement{Coordinate: coord, DisplayName: name}, nil
}

func (c *Client) fallback(center geo.Coordinate, rangeKm float64) []game.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Fallback(center, rangeKm, c.rng)
}

func (c *Client) newRequest(center geo.Coordinate, rangeKm float64, count int) Request {
	return Request{
		ID:          uuid.New().String(),
		Mode:        ModeFor(rangeKm),
		Center:      center,
		RangeKm:     rangeKm,
		Count:       count,
		Constraints: Constraints,
	}
}

func (c *Client) observe(kind string, fallback bool, elapsed time.Duration) {
	if c.recorder != nil {
		c.recorder.ObserveOracle(kind, fallback, elapsed)
	}
}

func requestAttrs(req Request) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("oracle.request_id", req.ID),
		attribute.String("oracle.mode", string(req.Mode)),
		attribute.Float64("oracle.range_km", req.RangeKm),
		attribute.Int("oracle.count", req.Count),
	}
}
