// Package roadattr validates inferred road attributes (heading, class, speed
// limit) against the vehicle's current motion before they are trusted. A
// rejected candidate carries a human-readable reason; falling back to the
// last accepted attribute is the caller's responsibility.
package roadattr

import (
	"fmt"

	"github.com/banshee-data/roadwatch/internal/config"
	"github.com/banshee-data/roadwatch/internal/geo"
)

// Class is a road classification as reported by an attribute lookup.
type Class string

const (
	ClassMotorway     Class = "motorway"
	ClassTrunk        Class = "trunk"
	ClassPrimary      Class = "primary"
	ClassSecondary    Class = "secondary"
	ClassTertiary     Class = "tertiary"
	ClassResidential  Class = "residential"
	ClassService      Class = "service"
	ClassLivingStreet Class = "living_street"
	ClassTrack        Class = "track"
	ClassPath         Class = "path"
	ClassUnknown      Class = "unknown"
)

// lowSpeedClasses are road classes a fast-moving vehicle is almost certainly
// not on; a lookup matching one of these at speed picked the wrong road.
var lowSpeedClasses = map[Class]bool{
	ClassService:      true,
	ClassResidential:  true,
	ClassLivingStreet: true,
	ClassTrack:        true,
	ClassPath:         true,
}

// Candidate is a road attribute set produced by one lookup. It is transient:
// the validator never stores it.
type Candidate struct {
	InferredHeading *float64 // road direction in degrees, nil when unknown
	Name            string   // road name, "" when unknown
	Class           Class
	SpeedLimit      float64 // m/s, 0 when the lookup had no limit
}

// Result is the outcome of a validation. Reason is empty when accepted.
type Result struct {
	Accepted bool
	Reason   string
}

// Validator checks candidates against the vehicle's motion state.
type Validator struct {
	HeadingTolerance float64 // max angular difference accepted, degrees
	SpeedGate        float64 // speed above which low-speed classes are rejected, m/s
}

// NewValidator builds a Validator from tuning configuration.
func NewValidator(cfg *config.TuningConfig) *Validator {
	return &Validator{
		HeadingTolerance: cfg.GetHeadingToleranceDeg(),
		SpeedGate:        cfg.GetSpeedGateMps(),
	}
}

// Validate decides whether a candidate is plausible given the vehicle's
// heading and speed. A nil vehicleHeading or candidate heading skips the
// heading check: absence of data must not block acceptance.
func (v *Validator) Validate(vehicleHeading *float64, vehicleSpeed float64, cand Candidate) Result {
	if vehicleHeading != nil && cand.InferredHeading != nil {
		// Roads are bidirectional: accept the road heading or its reverse,
		// whichever is closer to the vehicle's course.
		fwd := geo.AngleDifference(*vehicleHeading, *cand.InferredHeading)
		rev := geo.AngleDifference(*vehicleHeading, *cand.InferredHeading+180)
		diff := fwd
		if rev < diff {
			diff = rev
		}
		if diff > v.HeadingTolerance {
			return Result{
				Accepted: false,
				Reason: fmt.Sprintf("heading mismatch: vehicle %.0f° vs road %.0f° (diff %.0f°, tolerance %.0f°)",
					*vehicleHeading, *cand.InferredHeading, diff, v.HeadingTolerance),
			}
		}
	}

	if lowSpeedClasses[cand.Class] && vehicleSpeed > v.SpeedGate {
		return Result{
			Accepted: false,
			Reason: fmt.Sprintf("speed gate: %.1f m/s on %s road; vehicle is likely on a different road",
				vehicleSpeed, cand.Class),
		}
	}

	return Result{Accepted: true}
}
