// Package route detects departure from a planned route polyline and guards
// reroute requests against re-entrancy.
package route

import (
	"math"

	"github.com/banshee-data/roadwatch/internal/config"
	"github.com/banshee-data/roadwatch/internal/geo"
)

// Deviation is the outcome of one check.
type Deviation struct {
	DeviatingBy float64 // minimum distance to the route, meters
	OffRoute    bool    // true when the threshold was exceeded and a reroute should be requested
}

// Detector computes route deviation with a re-entrancy guard: while a reroute
// request is in flight, checks are suppressed so a continuously-deviating
// vehicle cannot spawn duplicate requests.
type Detector struct {
	Threshold float64 // meters

	rerouting bool
}

// NewDetector builds a Detector from tuning configuration.
func NewDetector(cfg *config.TuningConfig) *Detector {
	return &Detector{Threshold: cfg.GetDeviationThresholdMeters()}
}

// Check returns the deviation of the position from the route. A route with
// fewer than two points is expected during initialization and reports no
// deviation; while a reroute is in flight, checks are suppressed entirely.
func (d *Detector) Check(lat, lng float64, route []geo.Point) Deviation {
	if d.rerouting || len(route) < 2 {
		return Deviation{}
	}

	dist := geo.PathDistance(lat, lng, route)
	if math.IsInf(dist, 1) || dist < 0 {
		return Deviation{}
	}

	return Deviation{
		DeviatingBy: dist,
		OffRoute:    dist > d.Threshold,
	}
}

// IsOffRoute reports whether a deviation distance exceeds the threshold.
func (d *Detector) IsOffRoute(distance float64) bool {
	return distance > d.Threshold
}

// BeginReroute marks a reroute request as in flight. It returns false when a
// request is already outstanding, in which case the caller must not issue
// another one.
func (d *Detector) BeginReroute() bool {
	if d.rerouting {
		return false
	}
	d.rerouting = true
	return true
}

// FinishReroute marks the in-flight reroute as resolved (success or failure)
// and re-enables deviation checks.
func (d *Detector) FinishReroute() {
	d.rerouting = false
}

// IsRerouting reports whether a reroute request is outstanding.
func (d *Detector) IsRerouting() bool {
	return d.rerouting
}
