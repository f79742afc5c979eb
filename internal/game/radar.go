package game

import "github.com/phills76/Dragon-Ball-Radar-2/internal/geo"

// ZoomStep indexes the radar zoom cycle. The step after the last multiplier
// is the map view; the one after that wraps back to full range.
type ZoomStep int

// ZoomMultipliers scale the scan range for each radar zoom step.
var ZoomMultipliers = [...]float64{1.0, 0.5, 0.2, 0.05}

// ZoomMap is the map-view sentinel step.
const ZoomMap = ZoomStep(len(ZoomMultipliers))

// NextZoom advances the zoom cycle with wraparound.
func NextZoom(z ZoomStep) ZoomStep {
	return ZoomStep((int(normalizeZoom(z)) + 1) % (len(ZoomMultipliers) + 1))
}

// Multiplier returns the range multiplier for z. The second return is false
// for the map view.
func (z ZoomStep) Multiplier() (float64, bool) {
	z = normalizeZoom(z)
	if z == ZoomMap {
		return 0, false
	}
	return ZoomMultipliers[z], true
}

func normalizeZoom(z ZoomStep) ZoomStep {
	n := ZoomStep(len(ZoomMultipliers) + 1)
	z %= n
	if z < 0 {
		z += n
	}
	return z
}

// RadarInput is the slice of session state the view-model reads.
type RadarInput struct {
	Scan      ScanParams
	Position  *Position
	Targets   []Target
	Modifiers Modifiers
	Zoom      ZoomStep
}

// Blip is one target as the renderer should draw it. Point is nil in map
// view; DistanceKm is only filled once the scouter is unlocked.
type Blip struct {
	ID          int              `json:"id"`
	StarCount   int              `json:"star_count"`
	Found       bool             `json:"found"`
	DisplayName string           `json:"display_name"`
	Coordinate  geo.Coordinate   `json:"coordinate"`
	Point       *geo.ScreenPoint `json:"point,omitempty"`
	DistanceKm  *float64         `json:"distance_km,omitempty"`
}

// RadarView is what the radar or map renderer consumes.
type RadarView struct {
	HasCenter bool           `json:"has_center"`
	Center    geo.Coordinate `json:"center"`
	Zoom      ZoomStep       `json:"zoom"`
	MapView   bool           `json:"map_view"`
	RangeKm   float64        `json:"range_km"`
	Blips     []Blip         `json:"blips"`
}

// BuildRadar derives the radar view. Targets outside the circular face are
// left out; the map view keeps every target.
func BuildRadar(in RadarInput) RadarView {
	zoom := normalizeZoom(in.Zoom)
	view := RadarView{Zoom: zoom, RangeKm: in.Scan.RangeKm, Blips: []Blip{}}

	center, ok := EffectiveCenter(in.Scan, in.Position)
	if !ok {
		return view
	}
	view.HasCenter = true
	view.Center = center

	mult, radar := zoom.Multiplier()
	view.MapView = !radar
	if radar {
		view.RangeKm = in.Scan.RangeKm * mult
	}

	scouter := in.Modifiers.HasFeature(FeatureScouter)
	for _, t := range in.Targets {
		b := Blip{
			ID:          t.ID,
			StarCount:   t.StarCount,
			Found:       t.Found,
			DisplayName: t.DisplayName,
			Coordinate:  t.Coordinate,
		}
		if radar {
			p, visible := geo.ProjectToNormalizedScreen(center, t.Coordinate, view.RangeKm)
			if !visible {
				continue
			}
			b.Point = &p
		}
		if scouter && in.Position != nil {
			d := geo.HaversineKm(in.Position.Coordinate, t.Coordinate)
			b.DistanceKm = &d
		}
		view.Blips = append(view.Blips, b)
	}
	return view
}
