package roadattr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/roadwatch/internal/config"
)

func ptrFloat(v float64) *float64 { return &v }

func newTestValidator() *Validator {
	return NewValidator(config.EmptyTuningConfig())
}

func TestValidateHeading(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name           string
		vehicleHeading *float64
		roadHeading    *float64
		accepted       bool
	}{
		{"aligned", ptrFloat(10), ptrFloat(12), true},
		{"within tolerance", ptrFloat(10), ptrFloat(34), true},
		{"just outside tolerance", ptrFloat(10), ptrFloat(36), false},
		// Roads are bidirectional: heading 190 reversed is 10, a match.
		{"reversed direction match", ptrFloat(10), ptrFloat(190), true},
		{"perpendicular rejected", ptrFloat(0), ptrFloat(90), false},
		{"wraparound match", ptrFloat(355), ptrFloat(5), true},
		{"vehicle heading unknown", nil, ptrFloat(90), true},
		{"road heading unknown", ptrFloat(0), nil, true},
		{"both unknown", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.vehicleHeading, 20, Candidate{
				InferredHeading: tt.roadHeading,
				Class:           ClassPrimary,
			})
			assert.Equal(t, tt.accepted, result.Accepted)
			if !tt.accepted {
				assert.Contains(t, result.Reason, "heading mismatch")
			}
		})
	}
}

func TestValidateSpeedGate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name     string
		speed    float64
		class    Class
		accepted bool
	}{
		{"fast on residential", 80, ClassResidential, false},
		{"slow on residential", 40, ClassResidential, true},
		{"fast on service", 75, ClassService, false},
		{"fast on living street", 75, ClassLivingStreet, false},
		{"fast on track", 75, ClassTrack, false},
		{"fast on path", 75, ClassPath, false},
		{"fast on motorway", 80, ClassMotorway, true},
		{"exactly at gate", 70, ClassResidential, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(nil, tt.speed, Candidate{Class: tt.class})
			assert.Equal(t, tt.accepted, result.Accepted)
			if !tt.accepted {
				assert.Contains(t, result.Reason, "speed gate")
			}
		})
	}
}

func TestValidateBothChecksMustPass(t *testing.T) {
	v := newTestValidator()

	// Heading passes, speed gate fails.
	result := v.Validate(ptrFloat(10), 90, Candidate{
		InferredHeading: ptrFloat(10),
		Class:           ClassResidential,
	})
	assert.False(t, result.Accepted)

	// Speed gate passes, heading fails.
	result = v.Validate(ptrFloat(0), 10, Candidate{
		InferredHeading: ptrFloat(90),
		Class:           ClassResidential,
	})
	assert.False(t, result.Accepted)

	// Both pass.
	result = v.Validate(ptrFloat(0), 10, Candidate{
		InferredHeading: ptrFloat(175),
		Class:           ClassResidential,
	})
	assert.True(t, result.Accepted)
	assert.Empty(t, result.Reason)
}

func TestNameHeuristicClassifier(t *testing.T) {
	c := NameHeuristicClassifier{}

	tests := []struct {
		name     string
		roadName string
		roadType Class
		want     float64
		ok       bool
	}{
		{"motorway by name", "M4 Motorway", ClassUnknown, 30.6, true},
		{"highway by name", "Pacific Highway", ClassUnknown, 25.0, true},
		{"avenue by name", "Fifth Avenue", ClassUnknown, 16.7, true},
		{"lane by name", "Penny Lane", ClassUnknown, 8.3, true},
		{"name beats class default", "City Bypass", ClassResidential, 22.2, true},
		{"class default fallback", "Acacia Road", ClassResidential, 8.3, true},
		{"no inference possible", "Acacia Road", ClassUnknown, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(tt.roadName, tt.roadType)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassifierCaseInsensitive(t *testing.T) {
	c := NameHeuristicClassifier{}
	upper, ok1 := c.Classify("GREAT WESTERN HIGHWAY", ClassUnknown)
	lower, ok2 := c.Classify("great western highway", ClassUnknown)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, upper, lower)
}

func TestRejectionReasonIsHumanReadable(t *testing.T) {
	v := newTestValidator()
	result := v.Validate(ptrFloat(0), 20, Candidate{InferredHeading: ptrFloat(90)})
	assert.False(t, result.Accepted)
	assert.True(t, strings.Contains(result.Reason, "90"), "reason should name the mismatching heading: %q", result.Reason)
}
