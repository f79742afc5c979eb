package game

import "github.com/phills76/Dragon-Ball-Radar-2/internal/geo"

// ScanParams control where and how wide the next scan reaches.
type ScanParams struct {
	RangeKm        float64         `json:"range_km" msgpack:"range_km"`
	CenterOverride *geo.Coordinate `json:"center_override,omitempty" msgpack:"center_override,omitempty"`
}

// DefaultScanParams returns the scan parameters of a new save.
func DefaultScanParams() ScanParams {
	return ScanParams{RangeKm: DefaultRangeKm}
}

// IsGlobal reports whether a scan should ask for worldwide landmarks.
func (p ScanParams) IsGlobal() bool {
	return p.RangeKm > GlobalRangeKm
}

// EffectiveCenter picks the override when set, otherwise the live position.
// The second return is false while neither exists.
func EffectiveCenter(p ScanParams, pos *Position) (geo.Coordinate, bool) {
	if p.CenterOverride != nil {
		return *p.CenterOverride, true
	}
	if pos != nil {
		return pos.Coordinate, true
	}
	return geo.Coordinate{}, false
}
