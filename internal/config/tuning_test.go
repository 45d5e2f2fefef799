package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"speed_smoothing_alpha", cfg.GetSpeedSmoothingAlpha(), 0.7},
		{"accuracy_ceiling_meters", cfg.GetAccuracyCeilingMeters(), 30},
		{"min_speed_mps", cfg.GetMinSpeedMps(), 3},
		{"stationary_speed_mps", cfg.GetStationarySpeedMps(), 5},
		{"heading_reliable_speed_mps", cfg.GetHeadingReliableSpeedMps(), 5},
		{"min_movement_meters", cfg.GetMinMovementMeters(), 1},
		{"heading_tolerance_deg", cfg.GetHeadingToleranceDeg(), 25},
		{"speed_gate_mps", cfg.GetSpeedGateMps(), 70},
		{"dedup_radius_meters", cfg.GetDedupRadiusMeters(), 50},
		{"camera_radius_meters", cfg.GetCameraRadiusMeters(), 500},
		{"checkpoint_radius_meters", cfg.GetCheckpointRadiusMeters(), 1000},
		{"facing_tolerance_deg", cfg.GetFacingToleranceDeg(), 90},
		{"deviation_threshold_meters", cfg.GetDeviationThresholdMeters(), 50},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s default = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if got := cfg.GetSpeedWindowSize(); got != 5 {
		t.Errorf("speed_window_size default = %d, want 5", got)
	}
	if got := cfg.GetAnimationDuration(); got != 500*time.Millisecond {
		t.Errorf("animation_duration default = %v, want 500ms", got)
	}
	if got := cfg.GetAlertCooldown(); got != 5*time.Second {
		t.Errorf("alert_cooldown default = %v, want 5s", got)
	}
	if got := cfg.GetAlertClear(); got != 10*time.Second {
		t.Errorf("alert_clear default = %v, want 10s", got)
	}
}

func TestLoadTuningConfigPartial(t *testing.T) {
	path := writeConfig(t, `{"speed_smoothing_alpha": 0.5, "alert_cooldown": "3s"}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}

	if got := cfg.GetSpeedSmoothingAlpha(); got != 0.5 {
		t.Errorf("speed_smoothing_alpha = %v, want 0.5", got)
	}
	if got := cfg.GetAlertCooldown(); got != 3*time.Second {
		t.Errorf("alert_cooldown = %v, want 3s", got)
	}
	// Unset fields keep their defaults.
	if got := cfg.GetSpeedGateMps(); got != 70 {
		t.Errorf("speed_gate_mps = %v, want default 70", got)
	}
}

func TestLoadTuningConfigRejectsExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected error for non-json extension")
	}
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{"empty is valid", `{}`, false},
		{"alpha zero", `{"speed_smoothing_alpha": 0}`, true},
		{"alpha above one", `{"speed_smoothing_alpha": 1.5}`, true},
		{"negative accuracy ceiling", `{"accuracy_ceiling_meters": -1}`, true},
		{"inverted hysteresis band", `{"min_speed_mps": 6, "stationary_speed_mps": 4}`, true},
		{"valid hysteresis band", `{"min_speed_mps": 2, "stationary_speed_mps": 4}`, false},
		{"window below one", `{"speed_window_size": 0}`, true},
		{"tolerance above 180", `{"heading_tolerance_deg": 200}`, true},
		{"negative dedup radius", `{"dedup_radius_meters": -5}`, true},
		{"zero deviation threshold", `{"deviation_threshold_meters": 0}`, true},
		{"bad cooldown duration", `{"alert_cooldown": "fast"}`, true},
		{"good cooldown duration", `{"alert_cooldown": "2500ms"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.json)
			_, err := LoadTuningConfig(path)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadTuningConfig error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
