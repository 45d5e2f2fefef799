// Package motion turns raw, jittery GPS samples into a stable motion state:
// an exponentially smoothed speed, a stationary flag with hysteresis, a
// heading that locks at low speed, and an animated position suitable for
// continuous display.
package motion

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/roadwatch/internal/config"
	"github.com/banshee-data/roadwatch/internal/geo"
)

// Sample is a single raw location fix as delivered by a location source.
// Heading and Accuracy are nil when the source did not report them.
// Samples are immutable once created.
type Sample struct {
	Lat      float64
	Lng      float64
	Speed    float64  // raw speed over ground, m/s, non-negative
	Heading  *float64 // degrees [0, 360), nil when unknown
	Accuracy *float64 // horizontal accuracy, meters, nil when unknown
	Time     time.Time
}

// State is the externally visible motion state. It is a value snapshot;
// the smoother's internal state cannot be mutated through it.
type State struct {
	SmoothedSpeed float64  // m/s, never negative
	IsStationary  bool     // true while parked, with hysteresis against flicker
	AnimatedLat   float64  // interpolated display position
	AnimatedLng   float64
	LockedHeading *float64 // last reliable heading, nil until one is observed
}

// Config holds the smoother tuning parameters.
type Config struct {
	Alpha                float64       // EMA weight on the newest raw speed
	AccuracyCeiling      float64       // fixes with worse accuracy don't update speed (meters)
	MinSpeed             float64       // below this across the window, speed is forced to zero (m/s)
	StationarySpeed      float64       // flag leaves stationary only above this (m/s)
	HeadingReliableSpeed float64       // headings below this speed are frozen (m/s)
	SpeedWindowSize      int           // recent accepted readings kept for the stationary check
	AnimationDuration    time.Duration // position interpolation length
	MinMovement          float64       // displacement below this is ignored (meters)
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Alpha:                cfg.GetSpeedSmoothingAlpha(),
		AccuracyCeiling:      cfg.GetAccuracyCeilingMeters(),
		MinSpeed:             cfg.GetMinSpeedMps(),
		StationarySpeed:      cfg.GetStationarySpeedMps(),
		HeadingReliableSpeed: cfg.GetHeadingReliableSpeedMps(),
		SpeedWindowSize:      cfg.GetSpeedWindowSize(),
		AnimationDuration:    cfg.GetAnimationDuration(),
		MinMovement:          cfg.GetMinMovementMeters(),
	}
}

// DefaultConfig returns the smoother configuration with all defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// Smoother owns the smoothing state for one tracking session. Construct one
// per session and Reset it when tracking stops; there is no package-level
// state. Not safe for concurrent use — the engine drives it from a single
// goroutine.
type Smoother struct {
	cfg Config

	// Speed EMA
	ema     float64
	emaInit bool
	recent  []float64 // ring of recently accepted raw speeds

	stationary bool

	lockedHeading *float64

	// Position animation. rendered is what Tick reports; confirmed is the
	// last accepted target used for the minimal-movement gate.
	hasPosition  bool
	renderedLat  float64
	renderedLng  float64
	confirmedLat float64
	confirmedLng float64
	startLat     float64
	startLng     float64
	targetLat    float64
	targetLng    float64
	animStart    time.Time
	animating    bool
}

// NewSmoother creates a Smoother with the given configuration.
func NewSmoother(cfg Config) *Smoother {
	if cfg.SpeedWindowSize < 1 {
		cfg.SpeedWindowSize = 1
	}
	return &Smoother{cfg: cfg}
}

// Reset clears all state so the smoother can be reused for a new session.
func (s *Smoother) Reset() {
	cfg := s.cfg
	*s = Smoother{cfg: cfg}
}

// Update folds a new raw sample into the motion state and returns the
// resulting snapshot. Untrustworthy inputs never fail; the previous good
// value is held instead.
func (s *Smoother) Update(sample Sample) State {
	accurate := sample.Accuracy == nil || *sample.Accuracy <= s.cfg.AccuracyCeiling

	if accurate {
		raw := math.Max(0, sample.Speed)
		if !s.emaInit {
			// First valid sample seeds the EMA directly; no bootstrap lag.
			s.ema = raw
			s.emaInit = true
		} else {
			s.ema = s.cfg.Alpha*raw + (1-s.cfg.Alpha)*s.ema
		}

		s.recent = append(s.recent, raw)
		if len(s.recent) > s.cfg.SpeedWindowSize {
			s.recent = s.recent[len(s.recent)-s.cfg.SpeedWindowSize:]
		}
	}

	// Stationary classification. Forcing the EMA to zero once the whole
	// window sits below MinSpeed suppresses GPS speed drift at a standstill;
	// the flag only clears above the higher StationarySpeed threshold so it
	// cannot flicker across the boundary.
	if s.emaInit && len(s.recent) >= s.cfg.SpeedWindowSize &&
		s.ema < s.cfg.MinSpeed && floats.Max(s.recent) < s.cfg.MinSpeed {
		s.ema = 0
		s.stationary = true
	} else if s.ema >= s.cfg.StationarySpeed {
		s.stationary = false
	}

	// Heading lock: GPS course is meaningless near zero speed, so adopt a
	// new heading only when the fix is accurate and fast enough.
	if accurate && sample.Heading != nil && sample.Speed >= s.cfg.HeadingReliableSpeed {
		h := geo.NormalizeAngle(*sample.Heading)
		s.lockedHeading = &h
	}

	s.updateTarget(sample)

	return s.snapshot()
}

// updateTarget applies the position from a sample, starting or re-anchoring
// the display animation.
func (s *Smoother) updateTarget(sample Sample) {
	if !s.hasPosition {
		s.renderedLat, s.renderedLng = sample.Lat, sample.Lng
		s.confirmedLat, s.confirmedLng = sample.Lat, sample.Lng
		s.targetLat, s.targetLng = sample.Lat, sample.Lng
		s.hasPosition = true
		return
	}

	// Ignore micro-jitter below the minimal-movement gate.
	if geo.Distance(s.confirmedLat, s.confirmedLng, sample.Lat, sample.Lng) < s.cfg.MinMovement {
		return
	}

	// Re-anchor from the currently rendered point so a mid-flight update
	// never produces a discontinuous jump.
	s.startLat, s.startLng = s.renderedLat, s.renderedLng
	s.targetLat, s.targetLng = sample.Lat, sample.Lng
	s.confirmedLat, s.confirmedLng = sample.Lat, sample.Lng
	s.animStart = sample.Time
	s.animating = true
}

// Tick advances the position interpolation to the given time and returns the
// rendered position. Call once per animation frame.
func (s *Smoother) Tick(now time.Time) (lat, lng float64) {
	if !s.animating {
		return s.renderedLat, s.renderedLng
	}

	p := float64(now.Sub(s.animStart)) / float64(s.cfg.AnimationDuration)
	if p <= 0 {
		return s.renderedLat, s.renderedLng
	}
	if p >= 1 {
		p = 1
		s.animating = false
	}

	eased := easeOutCubic(p)
	s.renderedLat = s.startLat + (s.targetLat-s.startLat)*eased
	s.renderedLng = s.startLng + (s.targetLng-s.startLng)*eased
	return s.renderedLat, s.renderedLng
}

// Current returns the motion state without folding in a new sample.
func (s *Smoother) Current() State {
	return s.snapshot()
}

func (s *Smoother) snapshot() State {
	state := State{
		SmoothedSpeed: s.ema,
		IsStationary:  s.stationary,
		AnimatedLat:   s.renderedLat,
		AnimatedLng:   s.renderedLng,
	}
	if s.lockedHeading != nil {
		h := *s.lockedHeading
		state.LockedHeading = &h
	}
	return state
}

// easeOutCubic decelerates toward the target so arrivals look settled rather
// than abrupt.
func easeOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}
