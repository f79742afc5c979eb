package oracle

import (
	"fmt"
	"math"
	"strings"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
)

// maxNameLength caps display names coming from the network.
const maxNameLength = 80

// validCandidate returns the cleaned coordinate and name, or false when the
// candidate is unusable.
func validCandidate(c Candidate) (geo.Coordinate, string, bool) {
	if c.Lat == nil || c.Lng == nil {
		return geo.Coordinate{}, "", false
	}
	coord := geo.Coordinate{Lat: *c.Lat, Lng: *c.Lng}
	if math.IsInf(coord.Lat, 0) || math.IsInf(coord.Lng, 0) || !coord.Valid() {
		return geo.Coordinate{}, "", false
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return geo.Coordinate{}, "", false
	}
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return coord, name, true
}

// toTargets keeps the valid candidates in reply order, truncates to a full
// set and numbers them 1..7. Fewer than a full set is malformed.
func toTargets(candidates []Candidate) ([]game.Target, error) {
	targets := make([]game.Target, 0, game.TargetCount)
	for _, c := range candidates {
		coord, name, ok := validCandidate(c)
		if !ok {
			continue
		}
		n := len(targets) + 1
		targets = append(targets, game.Target{
			ID:          n,
			StarCount:   n,
			Coordinate:  coord,
			DisplayName: name,
		})
		if len(targets) == game.TargetCount {
			return targets, nil
		}
	}
	return nil, fmt.Errorf("%w: %d usable of %d received, need %d",
		ErrMalformedResponse, len(targets), len(candidates), game.TargetCount)
}
