package game

import "github.com/phills76/Dragon-Ball-Radar-2/internal/geo"

// InCollectionRange reports whether a target is strictly closer than radiusKm.
func InCollectionRange(player geo.Coordinate, t Target, radiusKm float64) bool {
	return geo.HaversineKm(player, t.Coordinate) < radiusKm
}

// Collect marks every unfound target within radiusKm of the player as found
// and returns the ids that changed this pass. Found targets are skipped, so
// repeated passes over the same input report nothing new.
func Collect(targets []Target, player geo.Coordinate, radiusKm float64) []int {
	var found []int
	for i := range targets {
		t := &targets[i]
		if t.Found {
			continue
		}
		if InCollectionRange(player, *t, radiusKm) {
			t.Found = true
			found = append(found, t.ID)
		}
	}
	return found
}
