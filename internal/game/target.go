package game

import "github.com/phills76/Dragon-Ball-Radar-2/internal/geo"

// Target is one collectible marker. ID and StarCount never change for the
// lifetime of a target set.
type Target struct {
	ID          int            `json:"id" msgpack:"id"`
	Coordinate  geo.Coordinate `json:"coordinate" msgpack:"coordinate"`
	StarCount   int            `json:"star_count" msgpack:"star_count"`
	Found       bool           `json:"found" msgpack:"found"`
	DisplayName string         `json:"display_name" msgpack:"display_name"`
}

// Position is a player fix from the location sensor.
type Position struct {
	Coordinate     geo.Coordinate `json:"coordinate"`
	AccuracyMeters float64        `json:"accuracy_m"`
}

// AllFound reports whether a full target set has been collected.
func AllFound(targets []Target) bool {
	return len(targets) == TargetCount && FoundCount(targets) == TargetCount
}

// FoundCount returns how many targets are marked found.
func FoundCount(targets []Target) int {
	n := 0
	for _, t := range targets {
		if t.Found {
			n++
		}
	}
	return n
}

// FindTarget returns the index of the target with id, or -1.
func FindTarget(targets []Target, id int) int {
	for i := range targets {
		if targets[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneTargets returns a copy safe to hand outside the session.
func CloneTargets(targets []Target) []Target {
	if targets == nil {
		return nil
	}
	out := make([]Target, len(targets))
	copy(out, targets)
	return out
}
