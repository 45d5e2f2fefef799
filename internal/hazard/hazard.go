// Package hazard matches the vehicle position against hazard entities:
// range filtering, source-priority deduplication, and a directional facing
// filter for hazards that only enforce one carriageway.
package hazard

import (
	"sort"

	"github.com/banshee-data/roadwatch/internal/geo"
)

// Category identifies the kind of hazard an entity represents.
type Category string

const (
	SpeedCamera    Category = "speed-camera"
	RedLightCamera Category = "red-light-camera"
	Checkpoint     Category = "checkpoint"
	AIEnforcement  Category = "ai-enforcement"
)

// Source ranks how much an entity's origin is trusted. Official data wins
// over community reports, which win over single-user additions.
type Source string

const (
	SourceOfficial  Source = "official"
	SourceCommunity Source = "community"
	SourceUser      Source = "user"
)

// Entity is one hazard. Entities arrive as an immutable snapshot per matching
// call; this package never owns their lifecycle.
type Entity struct {
	ID                 string
	Lat                float64
	Lng                float64
	Category           Category
	SpeedLimit         *float64 // m/s, nil when the hazard carries no limit
	Source             Source
	EnforcementHeading *float64 // direction of enforcement in degrees, nil when omnidirectional
}

// Match pairs an entity with its distance from the vehicle.
type Match struct {
	Entity   Entity
	Distance float64 // meters
}

// Matcher computes proximity matches against hazard snapshots.
type Matcher struct {
	DedupRadius     float64 // meters within which two sources describe one hazard
	FacingTolerance float64 // degrees beyond which a directional hazard is irrelevant
}

// NewMatcher returns a Matcher with the given dedup radius and facing
// tolerance in degrees.
func NewMatcher(dedupRadius, facingTolerance float64) *Matcher {
	return &Matcher{DedupRadius: dedupRadius, FacingTolerance: facingTolerance}
}

// Match returns every hazard within radius meters of the position, ordered by
// ascending distance. Ties keep input order so results are reproducible.
func (m *Matcher) Match(lat, lng float64, hazards []Entity, radius float64) []Match {
	if radius <= 0 {
		return nil
	}

	var matches []Match
	for _, h := range hazards {
		d := geo.Distance(lat, lng, h.Lat, h.Lng)
		if d <= radius {
			matches = append(matches, Match{Entity: h, Distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches
}

// Dedupe merges a lower-trust hazard list into a higher-trust one. A
// secondary entity within the dedup radius of any primary entity is assumed
// to be the same physical hazard and is dropped; primary entities are never
// dropped.
func (m *Matcher) Dedupe(primary, secondary []Entity) []Entity {
	merged := make([]Entity, 0, len(primary)+len(secondary))
	merged = append(merged, primary...)

	for _, s := range secondary {
		duplicate := false
		for _, p := range primary {
			if geo.Distance(s.Lat, s.Lng, p.Lat, p.Lng) <= m.DedupRadius {
				duplicate = true
				break
			}
		}
		if !duplicate {
			merged = append(merged, s)
		}
	}
	return merged
}

// Relevant reports whether a hazard applies to a vehicle approaching on the
// given heading. A hazard enforcing the opposite carriageway (angular
// difference beyond the facing tolerance) is irrelevant. Missing data fails
// open: a safety alert is never suppressed for lack of a heading.
func (m *Matcher) Relevant(vehicleHeading *float64, e Entity) bool {
	if vehicleHeading == nil || e.EnforcementHeading == nil {
		return true
	}
	return geo.AngleDifference(*vehicleHeading, *e.EnforcementHeading) <= m.FacingTolerance
}

// NearestRelevant returns the closest match in a category that passes the
// facing filter, or nil when none qualifies. Matches must already be sorted
// by distance (as produced by Match).
func (m *Matcher) NearestRelevant(matches []Match, vehicleHeading *float64, categories ...Category) *Match {
	wanted := make(map[Category]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	for i := range matches {
		if !wanted[matches[i].Entity.Category] {
			continue
		}
		if m.Relevant(vehicleHeading, matches[i].Entity) {
			match := matches[i]
			return &match
		}
	}
	return nil
}
