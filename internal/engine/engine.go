// Package engine wires the smoothing, validation, matching, arbitration, and
// deviation components into a single event-driven loop. Three drivers advance
// the system: the sample stream, a fixed alert-check tick, and the animation
// frame tick. All state updates happen on one goroutine; asynchronous lookup
// and reroute results are delivered back into the loop as deferred closures.
package engine

import (
	"context"
	"time"

	"github.com/banshee-data/roadwatch/internal/alert"
	"github.com/banshee-data/roadwatch/internal/config"
	"github.com/banshee-data/roadwatch/internal/geo"
	"github.com/banshee-data/roadwatch/internal/hazard"
	"github.com/banshee-data/roadwatch/internal/monitoring"
	"github.com/banshee-data/roadwatch/internal/motion"
	"github.com/banshee-data/roadwatch/internal/roadattr"
	"github.com/banshee-data/roadwatch/internal/route"
)

// Clock abstracts time so tests can drive ticks synchronously.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// AttributeLookup asynchronously resolves road attributes for a position.
// Implementations perform I/O; the engine discards stale results itself.
type AttributeLookup interface {
	Lookup(ctx context.Context, lat, lng float64) (roadattr.Candidate, error)
}

// HazardProvider supplies the current hazard snapshot, already deduplicated.
// The engine treats the returned slice as read-only input per call.
type HazardProvider interface {
	Snapshot(m *hazard.Matcher) ([]hazard.Entity, error)
}

// Rerouter requests fresh route geometry after a deviation.
type Rerouter interface {
	Reroute(ctx context.Context, lat, lng float64) ([]geo.Point, error)
}

// Options carries the engine's collaborators. Nil fields disable the
// corresponding feature rather than failing.
type Options struct {
	Clock     Clock
	Lookup    AttributeLookup
	Hazards   HazardProvider
	Rerouter  Rerouter
	Announcer alert.Announcer

	AlertInterval time.Duration // alert re-check period; default 1s
	FrameInterval time.Duration // animation frame period; default 50ms
}

// Engine owns one tracking session. It is not safe for concurrent use; Run
// multiplexes all drivers onto the calling goroutine, and tests drive the
// handler methods directly.
type Engine struct {
	cfg        *config.TuningConfig
	clock      Clock
	smoother   *motion.Smoother
	validator  *roadattr.Validator
	classifier roadattr.Classifier
	matcher    *hazard.Matcher
	arbitrator *alert.Arbitrator
	detector   *route.Detector

	lookup    AttributeLookup
	hazards   HazardProvider
	rerouter  Rerouter
	announcer alert.Announcer

	alertInterval time.Duration
	frameInterval time.Duration

	// Muted is forwarded to the announcement sink on each activation. The
	// engine itself never suppresses an alert decision because of it.
	Muted bool

	// Last position confirmed by a sample; used for matching and deviation.
	hasPosition bool
	lat, lng    float64

	// Last accepted road attributes; held as the fallback when a candidate
	// is rejected or a lookup fails.
	acceptedLimit   *float64
	acceptedClass   roadattr.Class
	acceptedHeading *float64

	routeGeometry []geo.Point

	// Monotonic sequence for attribute lookups; stale results are discarded.
	lookupSeq uint64

	// deferred carries async results back onto the loop goroutine.
	deferred chan func()
}

// New creates an Engine with the given tuning configuration and collaborators.
func New(cfg *config.TuningConfig, opts Options) *Engine {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	alertInterval := opts.AlertInterval
	if alertInterval <= 0 {
		alertInterval = time.Second
	}
	frameInterval := opts.FrameInterval
	if frameInterval <= 0 {
		frameInterval = 50 * time.Millisecond
	}

	return &Engine{
		cfg:           cfg,
		clock:         clock,
		smoother:      motion.NewSmoother(motion.ConfigFromTuning(cfg)),
		validator:     roadattr.NewValidator(cfg),
		classifier:    roadattr.NameHeuristicClassifier{},
		matcher:       hazard.NewMatcher(cfg.GetDedupRadiusMeters(), cfg.GetFacingToleranceDeg()),
		arbitrator:    alert.NewArbitrator(cfg),
		detector:      route.NewDetector(cfg),
		lookup:        opts.Lookup,
		hazards:       opts.Hazards,
		rerouter:      opts.Rerouter,
		announcer:     opts.Announcer,
		alertInterval: alertInterval,
		frameInterval: frameInterval,
		deferred:      make(chan func(), 16),
	}
}

// Run multiplexes the sample stream, the alert tick, and the animation tick
// onto the calling goroutine until the context is cancelled or the sample
// channel closes.
func (e *Engine) Run(ctx context.Context, samples <-chan motion.Sample) error {
	alertTicker := time.NewTicker(e.alertInterval)
	defer alertTicker.Stop()
	frameTicker := time.NewTicker(e.frameInterval)
	defer frameTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-samples:
			if !ok {
				return nil
			}
			e.HandleSample(ctx, s)
		case <-alertTicker.C:
			e.TickAlerts(e.clock.Now())
		case <-frameTicker.C:
			e.TickAnimation(e.clock.Now())
		case fn := <-e.deferred:
			fn()
		}
	}
}

// HandleSample processes one raw sample: the motion state is fully updated
// before the matcher, arbitrator, and deviation detector read it.
func (e *Engine) HandleSample(ctx context.Context, s motion.Sample) {
	state := e.smoother.Update(s)
	e.hasPosition = true
	e.lat, e.lng = s.Lat, s.Lng

	e.evaluateAlerts(s.Time, state)
	e.checkDeviation(ctx)
	e.requestAttributes(ctx)
}

// TickAlerts re-evaluates the arbitrator on the fixed interval so cooldown
// and clear timers expire even when no sample arrives.
func (e *Engine) TickAlerts(now time.Time) {
	if !e.hasPosition {
		return
	}
	e.evaluateAlerts(now, e.smoother.Current())
}

// TickAnimation advances the display position interpolation.
func (e *Engine) TickAnimation(now time.Time) (lat, lng float64) {
	return e.smoother.Tick(now)
}

// MotionState returns the current smoothed motion state.
func (e *Engine) MotionState() motion.State {
	return e.smoother.Current()
}

// SpeedLimit returns the currently accepted speed limit, nil when unknown.
func (e *Engine) SpeedLimit() *float64 {
	return e.acceptedLimit
}

// SetRoute installs fresh route geometry from the route provider.
func (e *Engine) SetRoute(points []geo.Point) {
	e.routeGeometry = points
}

// Reset clears all per-session state for a new tracking session.
func (e *Engine) Reset() {
	e.smoother.Reset()
	e.arbitrator.Reset()
	e.detector.FinishReroute()
	e.hasPosition = false
	e.acceptedLimit = nil
	e.acceptedClass = roadattr.ClassUnknown
	e.acceptedHeading = nil
	e.routeGeometry = nil
	e.lookupSeq++
}

func (e *Engine) evaluateAlerts(now time.Time, state motion.State) {
	var nearestCamera, nearestCheckpoint *hazard.Match

	if e.hazards != nil {
		snapshot, err := e.hazards.Snapshot(e.matcher)
		if err != nil {
			monitoring.Logf("engine: hazard snapshot failed: %v", err)
		} else {
			cameras := e.matcher.Match(e.lat, e.lng, snapshot, e.cfg.GetCameraRadiusMeters())
			nearestCamera = e.matcher.NearestRelevant(cameras, state.LockedHeading,
				hazard.SpeedCamera, hazard.RedLightCamera, hazard.AIEnforcement)

			checkpoints := e.matcher.Match(e.lat, e.lng, snapshot, e.cfg.GetCheckpointRadiusMeters())
			nearestCheckpoint = e.matcher.NearestRelevant(checkpoints, state.LockedHeading, hazard.Checkpoint)
		}
	}

	fired := e.arbitrator.Tick(alert.Input{
		Now:               now,
		Speed:             state.SmoothedSpeed,
		SpeedLimit:        e.acceptedLimit,
		NearestCamera:     nearestCamera,
		NearestCheckpoint: nearestCheckpoint,
	})
	if fired != nil {
		monitoring.Debugf("engine: alert %s (%s): %s", fired.ID, fired.Category, fired.Message)
		if e.announcer != nil {
			e.announcer.Announce(*fired, e.Muted)
		}
	}
}

func (e *Engine) checkDeviation(ctx context.Context) {
	if e.rerouter == nil || len(e.routeGeometry) < 2 {
		return
	}

	dev := e.detector.Check(e.lat, e.lng, e.routeGeometry)
	if !dev.OffRoute || !e.detector.BeginReroute() {
		return
	}

	monitoring.Debugf("engine: off route by %.0f m, requesting reroute", dev.DeviatingBy)
	lat, lng := e.lat, e.lng
	go func() {
		points, err := e.rerouter.Reroute(ctx, lat, lng)
		e.enqueue(func() {
			e.detector.FinishReroute()
			if err != nil {
				monitoring.Logf("engine: reroute failed: %v", err)
				return
			}
			e.routeGeometry = points
		})
	}()
}

func (e *Engine) requestAttributes(ctx context.Context) {
	if e.lookup == nil {
		return
	}

	e.lookupSeq++
	seq := e.lookupSeq
	lat, lng := e.lat, e.lng
	go func() {
		cand, err := e.lookup.Lookup(ctx, lat, lng)
		e.enqueue(func() { e.applyAttributes(seq, cand, err) })
	}()
}

// applyAttributes folds an attribute lookup result into the engine state.
// Stale results (superseded by a newer request) are discarded; failures and
// rejections hold the last accepted attributes.
func (e *Engine) applyAttributes(seq uint64, cand roadattr.Candidate, err error) {
	if seq != e.lookupSeq {
		return
	}
	if err != nil {
		monitoring.Debugf("engine: attribute lookup failed: %v", err)
		return
	}

	state := e.smoother.Current()
	result := e.validator.Validate(state.LockedHeading, state.SmoothedSpeed, cand)
	if !result.Accepted {
		monitoring.Debugf("engine: attribute candidate rejected: %s", result.Reason)
		return
	}

	e.acceptedClass = cand.Class
	e.acceptedHeading = cand.InferredHeading
	if cand.SpeedLimit > 0 {
		limit := cand.SpeedLimit
		e.acceptedLimit = &limit
	} else if limit, ok := e.classifier.Classify(cand.Name, cand.Class); ok {
		e.acceptedLimit = &limit
	}
}

// enqueue hands a closure to the loop goroutine; Run executes it between
// other events so async results never touch engine state concurrently.
func (e *Engine) enqueue(fn func()) {
	e.deferred <- fn
}
