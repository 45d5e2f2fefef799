package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig represents the root configuration for engine tuning parameters.
// Fields are pointers so that a partial JSON file only overrides what it
// names; the Get* accessors supply defaults for everything else.
type TuningConfig struct {
	// Motion smoother params
	SpeedSmoothingAlpha     *float64 `json:"speed_smoothing_alpha,omitempty"`
	AccuracyCeilingMeters   *float64 `json:"accuracy_ceiling_meters,omitempty"`
	MinSpeedMps             *float64 `json:"min_speed_mps,omitempty"`
	StationarySpeedMps      *float64 `json:"stationary_speed_mps,omitempty"`
	HeadingReliableSpeedMps *float64 `json:"heading_reliable_speed_mps,omitempty"`
	SpeedWindowSize         *int     `json:"speed_window_size,omitempty"`
	AnimationDuration       *string  `json:"animation_duration,omitempty"` // duration string like "500ms"
	MinMovementMeters       *float64 `json:"min_movement_meters,omitempty"`

	// Road attribute validation params
	HeadingToleranceDeg *float64 `json:"heading_tolerance_deg,omitempty"`
	SpeedGateMps        *float64 `json:"speed_gate_mps,omitempty"`

	// Hazard matching params
	DedupRadiusMeters     *float64 `json:"dedup_radius_meters,omitempty"`
	CameraRadiusMeters    *float64 `json:"camera_radius_meters,omitempty"`
	CheckpointRadiusMeter *float64 `json:"checkpoint_radius_meters,omitempty"`
	FacingToleranceDeg    *float64 `json:"facing_tolerance_deg,omitempty"`

	// Alert arbitration params
	AlertCooldown *string `json:"alert_cooldown,omitempty"` // duration string like "5s"
	AlertClear    *string `json:"alert_clear,omitempty"`    // duration string like "10s"

	// Route deviation params
	DeviationThresholdMeters *float64 `json:"deviation_threshold_meters,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and stay under the max file size. Fields omitted from the
// JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.SpeedSmoothingAlpha != nil {
		if *c.SpeedSmoothingAlpha <= 0 || *c.SpeedSmoothingAlpha > 1 {
			return fmt.Errorf("speed_smoothing_alpha must be in (0, 1], got %f", *c.SpeedSmoothingAlpha)
		}
	}

	if c.AccuracyCeilingMeters != nil && *c.AccuracyCeilingMeters <= 0 {
		return fmt.Errorf("accuracy_ceiling_meters must be positive, got %f", *c.AccuracyCeilingMeters)
	}

	if c.MinSpeedMps != nil && c.StationarySpeedMps != nil {
		if *c.MinSpeedMps > *c.StationarySpeedMps {
			return fmt.Errorf("min_speed_mps (%f) must not exceed stationary_speed_mps (%f); the pair forms the hysteresis band",
				*c.MinSpeedMps, *c.StationarySpeedMps)
		}
	}

	if c.SpeedWindowSize != nil && *c.SpeedWindowSize < 1 {
		return fmt.Errorf("speed_window_size must be at least 1, got %d", *c.SpeedWindowSize)
	}

	if c.HeadingToleranceDeg != nil {
		if *c.HeadingToleranceDeg < 0 || *c.HeadingToleranceDeg > 180 {
			return fmt.Errorf("heading_tolerance_deg must be in [0, 180], got %f", *c.HeadingToleranceDeg)
		}
	}

	if c.DedupRadiusMeters != nil && *c.DedupRadiusMeters < 0 {
		return fmt.Errorf("dedup_radius_meters must be non-negative, got %f", *c.DedupRadiusMeters)
	}

	if c.DeviationThresholdMeters != nil && *c.DeviationThresholdMeters <= 0 {
		return fmt.Errorf("deviation_threshold_meters must be positive, got %f", *c.DeviationThresholdMeters)
	}

	// Validate duration strings can be parsed if set
	for name, v := range map[string]*string{
		"animation_duration": c.AnimationDuration,
		"alert_cooldown":     c.AlertCooldown,
		"alert_clear":        c.AlertClear,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}

	return nil
}

// GetSpeedSmoothingAlpha returns the speed_smoothing_alpha value or the default.
func (c *TuningConfig) GetSpeedSmoothingAlpha() float64 {
	if c.SpeedSmoothingAlpha == nil {
		return 0.7
	}
	return *c.SpeedSmoothingAlpha
}

// GetAccuracyCeilingMeters returns the accuracy_ceiling_meters value or the default.
func (c *TuningConfig) GetAccuracyCeilingMeters() float64 {
	if c.AccuracyCeilingMeters == nil {
		return 30.0
	}
	return *c.AccuracyCeilingMeters
}

// GetMinSpeedMps returns the min_speed_mps value or the default.
func (c *TuningConfig) GetMinSpeedMps() float64 {
	if c.MinSpeedMps == nil {
		return 3.0
	}
	return *c.MinSpeedMps
}

// GetStationarySpeedMps returns the stationary_speed_mps value or the default.
func (c *TuningConfig) GetStationarySpeedMps() float64 {
	if c.StationarySpeedMps == nil {
		return 5.0
	}
	return *c.StationarySpeedMps
}

// GetHeadingReliableSpeedMps returns the heading_reliable_speed_mps value or the default.
func (c *TuningConfig) GetHeadingReliableSpeedMps() float64 {
	if c.HeadingReliableSpeedMps == nil {
		return 5.0
	}
	return *c.HeadingReliableSpeedMps
}

// GetSpeedWindowSize returns the speed_window_size value or the default.
func (c *TuningConfig) GetSpeedWindowSize() int {
	if c.SpeedWindowSize == nil {
		return 5
	}
	return *c.SpeedWindowSize
}

// GetAnimationDuration parses and returns the AnimationDuration as a time.Duration.
func (c *TuningConfig) GetAnimationDuration() time.Duration {
	if c.AnimationDuration == nil || *c.AnimationDuration == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.AnimationDuration)
	if err != nil {
		return 500 * time.Millisecond // default on parse error
	}
	return d
}

// GetMinMovementMeters returns the min_movement_meters value or the default.
func (c *TuningConfig) GetMinMovementMeters() float64 {
	if c.MinMovementMeters == nil {
		return 1.0
	}
	return *c.MinMovementMeters
}

// GetHeadingToleranceDeg returns the heading_tolerance_deg value or the default.
func (c *TuningConfig) GetHeadingToleranceDeg() float64 {
	if c.HeadingToleranceDeg == nil {
		return 25.0
	}
	return *c.HeadingToleranceDeg
}

// GetSpeedGateMps returns the speed_gate_mps value or the default.
func (c *TuningConfig) GetSpeedGateMps() float64 {
	if c.SpeedGateMps == nil {
		return 70.0
	}
	return *c.SpeedGateMps
}

// GetDedupRadiusMeters returns the dedup_radius_meters value or the default.
func (c *TuningConfig) GetDedupRadiusMeters() float64 {
	if c.DedupRadiusMeters == nil {
		return 50.0
	}
	return *c.DedupRadiusMeters
}

// GetCameraRadiusMeters returns the camera_radius_meters value or the default.
func (c *TuningConfig) GetCameraRadiusMeters() float64 {
	if c.CameraRadiusMeters == nil {
		return 500.0
	}
	return *c.CameraRadiusMeters
}

// GetCheckpointRadiusMeters returns the checkpoint_radius_meters value or the default.
func (c *TuningConfig) GetCheckpointRadiusMeters() float64 {
	if c.CheckpointRadiusMeter == nil {
		return 1000.0
	}
	return *c.CheckpointRadiusMeter
}

// GetFacingToleranceDeg returns the facing_tolerance_deg value or the default.
func (c *TuningConfig) GetFacingToleranceDeg() float64 {
	if c.FacingToleranceDeg == nil {
		return 90.0
	}
	return *c.FacingToleranceDeg
}

// GetAlertCooldown parses and returns the AlertCooldown as a time.Duration.
func (c *TuningConfig) GetAlertCooldown() time.Duration {
	if c.AlertCooldown == nil || *c.AlertCooldown == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(*c.AlertCooldown)
	if err != nil {
		return 5 * time.Second // default on parse error
	}
	return d
}

// GetAlertClear parses and returns the AlertClear window as a time.Duration.
func (c *TuningConfig) GetAlertClear() time.Duration {
	if c.AlertClear == nil || *c.AlertClear == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(*c.AlertClear)
	if err != nil {
		return 10 * time.Second // default on parse error
	}
	return d
}

// GetDeviationThresholdMeters returns the deviation_threshold_meters value or the default.
func (c *TuningConfig) GetDeviationThresholdMeters() float64 {
	if c.DeviationThresholdMeters == nil {
		return 50.0
	}
	return *c.DeviationThresholdMeters
}
