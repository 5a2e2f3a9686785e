package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/nrsur/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source != "sqlite" {
		t.Errorf("expected source sqlite, got %s", cfg.Source)
	}
	if cfg.Binary.MassRatio != 1 {
		t.Errorf("expected mass ratio 1, got %v", cfg.Binary.MassRatio)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("aligned")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Binary.ChiA[2] != 0.3 {
		t.Errorf("expected chiAz 0.3, got %f", cfg.Binary.ChiA[2])
	}
	if cfg.Model != DefaultModel {
		t.Errorf("preset lost the default model path: %q", cfg.Model)
	}

	cfg.Binary.MassRatio = 9
	if Presets["aligned"].Binary.MassRatio == 9 {
		t.Error("GetPreset returned shared state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for _, name := range presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.yaml")
	cfg := GetPreset("precessing")
	fRef := 0.01
	cfg.Waveform.FRef = &fRef
	cfg.Waveform.Dt = 0.5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Binary != cfg.Binary {
		t.Errorf("binary = %+v, want %+v", got.Binary, cfg.Binary)
	}
	if got.Waveform.FRef == nil || *got.Waveform.FRef != fRef {
		t.Errorf("f_ref lost: %v", got.Waveform.FRef)
	}
	if !got.Frame.ReturnDynamics {
		t.Error("return_dynamics lost")
	}
}

func TestValidate(t *testing.T) {
	v := 1.0
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"mass ratio", func(c *Config) { c.Binary.MassRatio = -1 }},
		{"spin", func(c *Config) { c.Binary.ChiB = [3]float64{1.2, 0, 0} }},
		{"ell max", func(c *Config) { c.Waveform.EllMax = 1 }},
		{"both references", func(c *Config) { c.Waveform.TRef, c.Waveform.FRef = &v, &v }},
		{"negative dt", func(c *Config) { c.Waveform.Dt = -1 }},
		{"theta only", func(c *Config) { c.Waveform.Theta = &v }},
		{"zero quaternion", func(c *Config) { c.Frame.InitQuat = &[4]float64{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrDomain) {
				t.Errorf("expected ErrDomain, got %v", err)
			}
		})
	}
}

func TestRequest(t *testing.T) {
	cfg := GetPreset("precessing")
	cfg.Frame.InitPhase = 0.7
	req := cfg.Request()
	if req.Params.ChiA != cfg.Binary.ChiA || req.InitPhase != 0.7 || !req.ReturnDynamics {
		t.Errorf("request does not reflect config: %+v", req)
	}
}
