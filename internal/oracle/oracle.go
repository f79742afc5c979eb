// Package oracle asks an external location service for places to hide the
// seven targets, and synthesizes a local set whenever it cannot.
package oracle

import (
	"context"
	"errors"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
	"github.com/phills76/Dragon-Ball-Radar-2/internal/geo"
)

var (
	// ErrOracleUnavailable covers transport failures, timeouts and non-2xx replies.
	ErrOracleUnavailable = errors.New("oracle: unavailable")
	// ErrMalformedResponse is returned when a reply does not match the expected shape.
	ErrMalformedResponse = errors.New("oracle: malformed response")
)

// Mode selects between nearby points and worldwide landmarks.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeGlobal Mode = "global"
)

// ModeFor returns the request mode for a scan range.
func ModeFor(rangeKm float64) Mode {
	if rangeKm > game.GlobalRangeKm {
		return ModeGlobal
	}
	return ModeLocal
}

// Constraints are forwarded verbatim with every request. The oracle is asked
// to honor them; nothing here can verify it did.
var Constraints = []string{
	"public and legally accessible",
	"on land, not in water",
	"not private property",
	"not a military, medical, religious or otherwise sensitive site",
}

// Request is what a Source is asked for.
type Request struct {
	ID          string         `json:"request_id"`
	Mode        Mode           `json:"mode"`
	Center      geo.Coordinate `json:"center"`
	RangeKm     float64        `json:"range_km"`
	Count       int            `json:"count"`
	StarCount   int            `json:"star_count,omitempty"` // relocation only
	Constraints []string       `json:"constraints"`
}

// Candidate is one raw place suggested by a Source. Lat and Lng are nil when
// the reply omitted them or sent something that is not a number.
type Candidate struct {
	Name string   `json:"name" jsonschema:"required,minLength=1,description=Short public name of the place"`
	Lat  *float64 `json:"lat" jsonschema:"required,minimum=-90,maximum=90"`
	Lng  *float64 `json:"lng" jsonschema:"required,minimum=-180,maximum=180"`
}

// Source is the raw network oracle. Implementations may fail in any way;
// Client absorbs every failure.
type Source interface {
	Candidates(ctx context.Context, req Request) ([]Candidate, error)
	Relocation(ctx context.Context, req Request) (Candidate, error)
}
