// Package alert turns matcher output and speeding status into a single active
// alert. A small state machine enforces cooldown between activations,
// idempotent re-triggering, and automatic clearing once the triggering
// condition has been gone long enough.
package alert

import (
	"fmt"
	"time"

	"github.com/banshee-data/roadwatch/internal/config"
	"github.com/banshee-data/roadwatch/internal/hazard"
)

// Category identifies what an alert is about.
type Category string

const (
	CategorySpeeding   Category = "speeding"
	CategoryCamera     Category = "camera"
	CategoryCheckpoint Category = "checkpoint"
)

// SpeedingAlertID is the stable id used for speed-limit violations; the
// hazard-backed categories use the hazard entity id.
const SpeedingAlertID = "speeding"

// Alert is one activation. The arbitrator returns it exactly once, when the
// alert becomes active; cooldown re-checks never re-emit it.
type Alert struct {
	ID       string
	Category Category
	Message  string
	Distance float64 // meters to the hazard; 0 for speeding alerts
}

// Announcer receives each new activation. Delivery (tone, speech, banner) is
// entirely external; muted is passed per call so the core carries no display
// state.
type Announcer interface {
	Announce(a Alert, muted bool)
}

// State is the arbitrator's lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateAlerting State = "alerting"
	StateCooldown State = "cooldown"
)

// Input is everything one arbitration tick looks at. Matches must already be
// range- and facing-filtered by the caller.
type Input struct {
	Now               time.Time
	Speed             float64  // current smoothed speed, m/s
	SpeedLimit        *float64 // accepted speed limit, m/s, nil when unknown
	NearestCamera     *hazard.Match
	NearestCheckpoint *hazard.Match
}

// Arbitrator owns the alert state. Drive it from a single goroutine: feed
// Tick on every sample and on the fixed alert-check interval so cooldown and
// clear timers expire even when no sample arrives.
type Arbitrator struct {
	Cooldown   time.Duration // min time between activations of distinct ids
	ClearAfter time.Duration // active alert clears after this long without a trigger

	activeID       string
	activeCategory Category
	cooldownExpiry time.Time
	lastTrigger    time.Time
}

// NewArbitrator builds an Arbitrator from tuning configuration.
func NewArbitrator(cfg *config.TuningConfig) *Arbitrator {
	return &Arbitrator{
		Cooldown:   cfg.GetAlertCooldown(),
		ClearAfter: cfg.GetAlertClear(),
	}
}

// Tick evaluates the current conditions and returns a non-nil Alert exactly
// when a new alert becomes active. Priority is speeding, then camera, then
// checkpoint; only the highest triggering condition counts per tick.
func (a *Arbitrator) Tick(in Input) *Alert {
	trigger := a.selectTrigger(in)

	if trigger == nil {
		if a.activeID != "" && !a.lastTrigger.IsZero() && in.Now.Sub(a.lastTrigger) > a.ClearAfter {
			a.activeID = ""
			a.activeCategory = ""
		}
		return nil
	}

	a.lastTrigger = in.Now

	// Re-triggering the active alert is a no-op.
	if trigger.ID == a.activeID {
		return nil
	}

	// A different id becomes eligible only after cooldown expires.
	if in.Now.Before(a.cooldownExpiry) {
		return nil
	}

	a.activeID = trigger.ID
	a.activeCategory = trigger.Category
	a.cooldownExpiry = in.Now.Add(a.Cooldown)
	return trigger
}

// selectTrigger returns the highest-priority qualifying condition, or nil.
func (a *Arbitrator) selectTrigger(in Input) *Alert {
	if in.SpeedLimit != nil && in.Speed > *in.SpeedLimit {
		return &Alert{
			ID:       SpeedingAlertID,
			Category: CategorySpeeding,
			Message:  fmt.Sprintf("speed %.0f m/s exceeds limit %.0f m/s", in.Speed, *in.SpeedLimit),
		}
	}
	if in.NearestCamera != nil {
		return &Alert{
			ID:       in.NearestCamera.Entity.ID,
			Category: CategoryCamera,
			Message:  fmt.Sprintf("%s in %.0f m", in.NearestCamera.Entity.Category, in.NearestCamera.Distance),
			Distance: in.NearestCamera.Distance,
		}
	}
	if in.NearestCheckpoint != nil {
		return &Alert{
			ID:       in.NearestCheckpoint.Entity.ID,
			Category: CategoryCheckpoint,
			Message:  fmt.Sprintf("%s in %.0f m", in.NearestCheckpoint.Entity.Category, in.NearestCheckpoint.Distance),
			Distance: in.NearestCheckpoint.Distance,
		}
	}
	return nil
}

// Active returns the currently active alert id and category, if any.
func (a *Arbitrator) Active() (id string, category Category, ok bool) {
	return a.activeID, a.activeCategory, a.activeID != ""
}

// State reports the lifecycle state at the given time.
func (a *Arbitrator) State(now time.Time) State {
	if a.activeID != "" {
		return StateAlerting
	}
	if now.Before(a.cooldownExpiry) {
		return StateCooldown
	}
	return StateIdle
}

// Reset returns the arbitrator to Idle with no cooldown pending.
func (a *Arbitrator) Reset() {
	a.activeID = ""
	a.activeCategory = ""
	a.cooldownExpiry = time.Time{}
	a.lastTrigger = time.Time{}
}
