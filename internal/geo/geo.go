// Package geo provides angle arithmetic and great-circle geometry used by the
// motion, hazard, and route packages. All functions are pure; angles are in
// degrees, distances in meters.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// NormalizeAngle wraps an angle into the [0, 360) range.
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// AngleDifference returns the minimal angular difference between two headings
// in degrees. The result is symmetric and always in [0, 180].
func AngleDifference(a, b float64) float64 {
	diff := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// Bearing returns the initial great-circle bearing from (lat1, lng1) to
// (lat2, lng2) in degrees, normalized to [0, 360).
func Bearing(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaLambda := (lng2 - lng1) * math.Pi / 180

	y := math.Sin(deltaLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)

	return NormalizeAngle(math.Atan2(y, x) * 180 / math.Pi)
}

// Distance returns the great-circle (haversine) distance in meters between
// two coordinates.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Point is a single coordinate on a route polyline.
type Point struct {
	Lat float64
	Lng float64
}

// PathDistance returns the minimum distance in meters from a position to a
// polyline, approximated as the minimum distance to the polyline's points.
// An empty polyline yields +Inf so callers can treat "no geometry" as "no
// deviation".
func PathDistance(lat, lng float64, path []Point) float64 {
	if len(path) == 0 {
		return math.Inf(1)
	}
	min := math.Inf(1)
	for _, p := range path {
		if d := Distance(lat, lng, p.Lat, p.Lng); d < min {
			min = d
		}
	}
	return min
}
