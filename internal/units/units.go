// Package units provides shared constants and conversion helpers for speed
// units. The engine works internally in meters per second; sources (NMEA
// reports speed over ground in knots) and display surfaces convert at the
// boundary.
package units

// Unit constants
const (
	MPS   = "mps"
	MPH   = "mph"
	KMPH  = "kmph"
	KPH   = "kph"
	Knots = "knots"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH, Knots}

// Conversion factors from meters per second.
const (
	mpsToMPH   = 2.2369362920544
	mpsToKPH   = 3.6
	mpsToKnots = 1.9438444924406
)

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// FromMPS converts a speed in meters per second to the target units.
// Unknown units pass the value through unchanged.
func FromMPS(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * mpsToMPH
	case KMPH, KPH:
		return speedMPS * mpsToKPH
	case Knots:
		return speedMPS * mpsToKnots
	default:
		return speedMPS
	}
}

// ToMPS converts a speed in the given units to meters per second.
// Unknown units pass the value through unchanged.
func ToMPS(speed float64, sourceUnits string) float64 {
	switch sourceUnits {
	case MPH:
		return speed / mpsToMPH
	case KMPH, KPH:
		return speed / mpsToKPH
	case Knots:
		return speed / mpsToKnots
	default:
		return speed
	}
}
