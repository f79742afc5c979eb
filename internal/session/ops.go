package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/oracle"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/progression"
)

// UpdatePlayerPosition replaces the position fix and runs one collection
// pass. It returns the ids found by this update.
func (s *Session) UpdatePlayerPosition(ctx context.Context, pos game.Position) ([]int, error) {
	if !pos.Coordinate.Valid() {
		return nil, ErrInvalidPosition
	}

	var found []int
	err := s.do(ctx, func() {
		p := pos
		s.position = &p
		found = s.collect()
		s.emitState()
	})
	return found, err
}

// SetScanParameters replaces the scan parameters. The target set is left
// alone until the next refresh.
func (s *Session) SetScanParameters(ctx context.Context, params game.ScanParams) error {
	if params.RangeKm <= 0 || math.IsNaN(params.RangeKm) || math.IsInf(params.RangeKm, 0) {
		return fmt.Errorf("%w: range must be positive", ErrInvalidScan)
	}
	if params.CenterOverride != nil && !params.CenterOverride.Valid() {
		return fmt.Errorf("%w: center out of range", ErrInvalidScan)
	}

	var err error
	if doErr := s.do(ctx, func() {
		mods := &s.snap.Modifiers
		if params.CenterOverride != nil && !mods.HasFeature(game.FeatureCustomZone) {
			err = fmt.Errorf("%w: %s", ErrFeatureLocked, game.FeatureCustomZone)
			return
		}
		if params.IsGlobal() && !mods.HasFeature(game.FeatureWorldRadar) {
			err = fmt.Errorf("%w: %s", ErrFeatureLocked, game.FeatureWorldRadar)
			return
		}

		next := game.ScanParams{RangeKm: params.RangeKm}
		if params.CenterOverride != nil {
			c := *params.CenterOverride
			next.CenterOverride = &c
		}
		s.snap.Scan = next
		s.persist()
		s.emitState()
	}); doErr != nil {
		return doErr
	}
	return err
}

// RefreshTargets asks the oracle for a new target set around the effective
// center. It returns once the request is in flight; subscribers see the new
// set in a state event. Any earlier refresh still in flight becomes stale.
func (s *Session) RefreshTargets(ctx context.Context) error {
	var err error
	if doErr := s.do(ctx, func() {
		center, ok := game.EffectiveCenter(s.snap.Scan, s.position)
		if !ok {
			err = ErrNoEffectiveCenter
			return
		}

		s.generation++
		gen := s.generation
		rangeKm := s.snap.Scan.RangeKm
		s.inflight++
		s.emitState()

		runCtx := s.runCtx
		go func() {
			batch := s.oracle.RequestCandidates(runCtx, center, rangeKm)
			s.post(func() { s.applyBatch(gen, batch) })
		}()
	}); doErr != nil {
		return doErr
	}
	return err
}

func (s *Session) applyBatch(gen uint64, batch oracle.Batch) {
	s.inflight--
	if gen != s.generation {
		s.dropStale("candidates", gen, s.generation)
		return
	}

	s.snap.Targets = game.CloneTargets(batch.Targets)
	s.setID++
	slog.Info("targets refreshed", "session", s.key, "generation", gen, "fallback", batch.Fallback)
	s.collect()
	s.persist()
	s.emitState()
}

// RelocateTarget asks the oracle for a new place for one target. Its id,
// star count and found flag are kept.
func (s *Session) RelocateTarget(ctx context.Context, id int) error {
	var err error
	if doErr := s.do(ctx, func() {
		idx := game.FindTarget(s.snap.Targets, id)
		if idx < 0 {
			err = fmt.Errorf("%w: %d", ErrUnknownTarget, id)
			return
		}
		center, ok := game.EffectiveCenter(s.snap.Scan, s.position)
		if !ok {
			err = ErrNoEffectiveCenter
			return
		}

		// Tag with the set the target belongs to, not the refresh
		// generation: a refresh may be in flight.
		set := s.setID
		rangeKm := s.snap.Scan.RangeKm
		starCount := s.snap.Targets[idx].StarCount
		s.inflight++
		s.emitState()

		runCtx := s.runCtx
		go func() {
			p := s.oracle.RequestRelocation(runCtx, center, rangeKm, starCount)
			s.post(func() { s.applyPlacement(set, id, p) })
		}()
	}); doErr != nil {
		return doErr
	}
	return err
}

func (s *Session) applyPlacement(set uint64, id int, p oracle.Placement) {
	s.inflight--
	idx := game.FindTarget(s.snap.Targets, id)
	if set != s.setID || idx < 0 {
		s.dropStale("relocation", set, s.setID)
		return
	}

	t := &s.snap.Targets[idx]
	t.Coordinate = p.Coordinate
	t.DisplayName = p.DisplayName
	slog.Info("target relocated", "session", s.key, "target", id, "fallback", p.Fallback)
	s.collect()
	s.persist()
	s.emitState()
}

func (s *Session) dropStale(kind string, tag, current uint64) {
	slog.Debug("discarding stale oracle response",
		"session", s.key, "kind", kind, "tag", tag, "current", current)
	s.recorder.StaleResponseDropped()
	s.emitState()
}

// GrantWish applies a node of the progression graph. A gated wish spends
// the target set.
func (s *Session) GrantWish(ctx context.Context, id progression.NodeID) (progression.Grant, error) {
	var (
		res progression.Grant
		err error
	)
	if doErr := s.do(ctx, func() {
		_, span := s.tracer.Start(ctx, "session.grant_wish", trace.WithAttributes(
			attribute.String("session.key", s.key),
			attribute.String("wish.node", string(id)),
		))
		defer span.End()

		res, err = s.graph.Grant(id, &s.snap.Modifiers, s.snap.Targets)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetAttributes(attribute.Bool("wish.consumed", res.Consumed))

		if res.Consumed {
			s.snap.Targets = nil
			s.generation++
			s.setID++
		}
		slog.Info("wish granted", "session", s.key, "node", id, "consumed", res.Consumed)
		s.recorder.WishGranted(string(id), res.Consumed)
		s.persist()
		s.emitState()
	}); doErr != nil {
		return progression.Grant{}, doErr
	}
	return res, err
}

// View returns a copy of the current state.
func (s *Session) View(ctx context.Context) (View, error) {
	var v View
	err := s.do(ctx, func() { v = s.view() })
	return v, err
}

// Snapshot returns a copy of the persisted part of the state.
func (s *Session) Snapshot(ctx context.Context) (game.Snapshot, error) {
	var snap game.Snapshot
	err := s.do(ctx, func() { snap = s.snap.Clone() })
	return snap, err
}

// Radar derives the radar view for a zoom step.
func (s *Session) Radar(ctx context.Context, zoom game.ZoomStep) (game.RadarView, error) {
	var rv game.RadarView
	err := s.do(ctx, func() {
		rv = game.BuildRadar(game.RadarInput{
			Scan:      s.snap.Scan,
			Position:  s.position,
			Targets:   s.snap.Targets,
			Modifiers: s.snap.Modifiers,
			Zoom:      zoom,
		})
	})
	return rv, err
}

// Wishes lists every node of the progression graph with its status.
func (s *Session) Wishes(ctx context.Context) ([]progression.NodeStatus, error) {
	var out []progression.NodeStatus
	err := s.do(ctx, func() {
		out = s.graph.Evaluate(&s.snap.Modifiers, s.snap.Targets)
	})
	return out, err
}

// Subscribe registers fn for events under id, replacing any previous
// handler with the same id. The current state is delivered immediately.
func (s *Session) Subscribe(ctx context.Context, id string, fn func(Event)) error {
	return s.do(ctx, func() {
		s.subscribers[id] = fn
		v := s.view()
		fn(Event{Type: EventState, State: &v})
	})
}

// Unsubscribe removes the handler registered under id and returns how many
// remain.
func (s *Session) Unsubscribe(ctx context.Context, id string) (int, error) {
	var n int
	err := s.do(ctx, func() {
		delete(s.subscribers, id)
		n = len(s.subscribers)
	})
	return n, err
}

// collect runs one collection pass and announces what changed.
func (s *Session) collect() []int {
	if s.position == nil || len(s.snap.Targets) == 0 {
		return nil
	}

	wasReady := game.AllFound(s.snap.Targets)
	found := game.Collect(s.snap.Targets, s.position.Coordinate, s.snap.Modifiers.CollectionRadiusKm)
	if len(found) == 0 {
		return nil
	}

	slog.Info("targets collected", "session", s.key, "ids", found)
	s.recorder.TargetsCollected(len(found))
	s.persist()
	s.emit(Event{Type: EventCollected, Collected: found})

	if !wasReady && game.AllFound(s.snap.Targets) {
		s.emit(Event{Type: EventWishReady})
	}
	return found
}
