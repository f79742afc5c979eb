// Package geo holds the coordinate math shared by the collection engine, the
// oracle fallback and the radar view-model. Everything here is pure.
package geo

import "math"

const (
	EarthRadiusKm = 6371.0
	// KmPerDegree is the flat-earth scale used by the radar and the fallback
	// generator. It is not used for collection decisions.
	KmPerDegree = 111.0
)

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" msgpack:"lat"`
	Lng float64 `json:"lng" msgpack:"lng"`
}

// Valid reports whether the coordinate is inside the latitude and longitude ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Offset is a local east/north displacement in kilometres.
type Offset struct {
	DxKm float64 `json:"dx_km"`
	DyKm float64 `json:"dy_km"`
}

// ProjectRelative converts point into an east (Dx) / north (Dy) offset from
// center using a flat-earth approximation. Accuracy degrades with distance
// and latitude.
func ProjectRelative(center, point Coordinate) Offset {
	return Offset{
		DxKm: (point.Lng - center.Lng) * KmPerDegree * math.Cos(toRadians(center.Lat)),
		DyKm: (point.Lat - center.Lat) * KmPerDegree,
	}
}

// ScreenPoint is a position in the unit square, (0.5, 0.5) being the radar
// center. Y grows downward so north renders at the top.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ProjectToNormalizedScreen maps point onto the radar face for the given
// visible range. The second return is false when the point falls outside the
// circular face and should not be drawn.
func ProjectToNormalizedScreen(center, point Coordinate, rangeKm float64) (ScreenPoint, bool) {
	if rangeKm <= 0 {
		return ScreenPoint{}, false
	}
	off := ProjectRelative(center, point)
	nx := off.DxKm / (2 * rangeKm)
	ny := off.DyKm / (2 * rangeKm)
	if math.Hypot(nx, ny) > 0.5 {
		return ScreenPoint{}, false
	}
	return ScreenPoint{X: 0.5 + nx, Y: 0.5 - ny}, true
}

// Float64Source is satisfied by *rand.Rand.
type Float64Source interface {
	Float64() float64
}

// RandomPointWithinRadius picks a uniform bearing and a radius uniform in
// [0, maxRadiusKm). Points cluster toward the center; this is a fallback
// sampler, not an area-uniform one.
func RandomPointWithinRadius(center Coordinate, maxRadiusKm float64, rng Float64Source) Coordinate {
	bearing := rng.Float64() * 2 * math.Pi
	radius := rng.Float64() * math.Max(maxRadiusKm, 0)

	dy := radius * math.Cos(bearing)
	dx := radius * math.Sin(bearing)

	// Near the poles the longitude scale collapses; keep it finite.
	scale := math.Max(math.Abs(math.Cos(toRadians(center.Lat))), 1e-6)

	return Coordinate{
		Lat: clampLat(center.Lat + dy/KmPerDegree),
		Lng: wrapLng(center.Lng + dx/(KmPerDegree*scale)),
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clampLat(lat float64) float64 {
	if lat > 90 {
		return 90
	}
	if lat < -90 {
		return -90
	}
	return lat
}

func wrapLng(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}
