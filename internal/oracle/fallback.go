package oracle

import (
	"fmt"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
)

// RelocationPlaceholder names a relocated target when the oracle gave no name.
const RelocationPlaceholder = "Hidden location"

// minSeparationFraction keeps fallback targets from piling up on each other,
// as a fraction of the scan range.
const minSeparationFraction = 0.1

// Fallback synthesizes a full target set around center. Points are drawn with
// geo.RandomPointWithinRadius and named "Dragon Ball N".
func Fallback(center geo.Coordinate, rangeKm float64, rng geo.Float64Source) []game.Target {
	targets := make([]game.Target, 0, game.TargetCount)
	placed := make([]geo.Coordinate, 0, game.TargetCount)

	for i := 1; i <= game.TargetCount; i++ {
		p := spreadPoint(center, rangeKm, rng, placed)
		placed = append(placed, p)
		targets = append(targets, game.Target{
			ID:          i,
			StarCount:   i,
			Coordinate:  p,
			DisplayName: fmt.Sprintf("Dragon Ball %d", i),
		})
	}
	return targets
}

// FallbackPlacement draws a single replacement point.
func FallbackPlacement(center geo.Coordinate, rangeKm float64, rng geo.Float64Source) Placement {
	return Placement{
		Coordinate:  geo.RandomPointWithinRadius(center, rangeKm, rng),
		DisplayName: RelocationPlaceholder,
		Fallback:    true,
	}
}

// spreadPoint finds a random point that respects the minimum separation from
// existing points. Falls back to any random point after maxAttempts.
func spreadPoint(center geo.Coordinate, rangeKm float64, rng geo.Float64Source, existing []geo.Coordinate) geo.Coordinate {
	const maxAttempts = 20
	minSep := rangeKm * minSeparationFraction

	for i := 0; i < maxAttempts; i++ {
		p := geo.RandomPointWithinRadius(center, rangeKm, rng)
		if isFarEnough(p, existing, minSep) {
			return p
		}
	}

	// Fallback: accept a point even if the separation is not guaranteed
	return geo.RandomPointWithinRadius(center, rangeKm, rng)
}

func isFarEnough(p geo.Coordinate, existing []geo.Coordinate, minKm float64) bool {
	for _, e := range existing {
		if geo.HaversineKm(p, e) < minKm {
			return false
		}
	}
	return true
}
