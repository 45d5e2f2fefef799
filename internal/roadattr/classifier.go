package roadattr

import "strings"

// Classifier infers a speed limit when the attribute lookup did not carry an
// explicit one. Implementations are pluggable so the heuristic can be swapped
// or tested independently of the validator's gating logic.
type Classifier interface {
	// Classify returns an inferred speed limit in m/s for the given road
	// name and type, and whether an inference was possible.
	Classify(roadName string, roadType Class) (limit float64, ok bool)
}

// NameHeuristicClassifier infers limits from road naming conventions and
// class defaults. Substring rules are ordered most-specific first; the first
// match wins.
type NameHeuristicClassifier struct{}

// nameRules maps lowercase name fragments to speed limits in m/s.
// Roughly: motorway 110 km/h, expressway 90, boulevard/avenue 60, lane 30.
var nameRules = []struct {
	fragment string
	limit    float64
}{
	{"motorway", 30.6},
	{"freeway", 30.6},
	{"expressway", 25.0},
	{"highway", 25.0},
	{"bypass", 22.2},
	{"boulevard", 16.7},
	{"avenue", 16.7},
	{"lane", 8.3},
	{"mews", 5.6},
}

// classDefaults supplies a fallback limit per road class in m/s.
var classDefaults = map[Class]float64{
	ClassMotorway:     30.6,
	ClassTrunk:        25.0,
	ClassPrimary:      22.2,
	ClassSecondary:    16.7,
	ClassTertiary:     13.9,
	ClassResidential:  8.3,
	ClassService:      5.6,
	ClassLivingStreet: 5.6,
	ClassTrack:        5.6,
	ClassPath:         5.6,
}

func (NameHeuristicClassifier) Classify(roadName string, roadType Class) (float64, bool) {
	name := strings.ToLower(roadName)
	for _, rule := range nameRules {
		if strings.Contains(name, rule.fragment) {
			return rule.limit, true
		}
	}
	if limit, ok := classDefaults[roadType]; ok {
		return limit, true
	}
	return 0, false
}
