package config

import (
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/nrsur/internal/dynamo"
	"github.com/san-kum/nrsur/internal/surrogate"
)

const (
	DefaultModel     = "nrsur.sqlite"
	DefaultSource    = "sqlite"
	DefaultMassRatio = 1.0
	DefaultEllMax    = surrogate.DefaultEllMax
)

type Config struct {
	Model    string         `yaml:"model"`
	Source   string         `yaml:"source"`
	Binary   BinaryConfig   `yaml:"binary"`
	Waveform WaveformConfig `yaml:"waveform"`
	Frame    FrameConfig    `yaml:"frame"`
}

type BinaryConfig struct {
	MassRatio float64    `yaml:"mass_ratio"`
	ChiA      [3]float64 `yaml:"chi_a"`
	ChiB      [3]float64 `yaml:"chi_b"`
}

type WaveformConfig struct {
	EllMax int      `yaml:"ell_max"`
	TRef   *float64 `yaml:"t_ref,omitempty"`
	FRef   *float64 `yaml:"f_ref,omitempty"`
	Dt     float64  `yaml:"dt"`
	Theta  *float64 `yaml:"theta,omitempty"`
	Phi    *float64 `yaml:"phi,omitempty"`
}

type FrameConfig struct {
	InitPhase      float64     `yaml:"init_phase"`
	InitQuat       *[4]float64 `yaml:"init_quat,omitempty"`
	ReturnDynamics bool        `yaml:"return_dynamics"`
	LALConventions bool        `yaml:"lal_conventions"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:  DefaultModel,
		Source: DefaultSource,
		Binary: BinaryConfig{MassRatio: DefaultMassRatio},
		Waveform: WaveformConfig{
			EllMax: DefaultEllMax,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that can be judged without a loaded model.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	w := c.Waveform
	if w.EllMax != 0 && w.EllMax < 2 {
		return dynamo.Domainf("config", "ell_max must be at least 2, got %d", w.EllMax)
	}
	if w.TRef != nil && w.FRef != nil {
		return dynamo.Domainf("config", "set at most one of t_ref and f_ref")
	}
	if w.Dt < 0 || math.IsNaN(w.Dt) {
		return dynamo.Domainf("config", "dt must not be negative, got %v", w.Dt)
	}
	if (w.Theta == nil) != (w.Phi == nil) {
		return dynamo.Domainf("config", "set both or neither of theta and phi")
	}
	if q := c.Frame.InitQuat; q != nil && q[0] == 0 && q[1] == 0 && q[2] == 0 && q[3] == 0 {
		return dynamo.Domainf("config", "init_quat must be non-zero")
	}
	return nil
}

func (c *Config) Params() dynamo.Params {
	return dynamo.Params{
		MassRatio: c.Binary.MassRatio,
		ChiA:      c.Binary.ChiA,
		ChiB:      c.Binary.ChiB,
	}
}

// Request builds the evaluation request described by c.
func (c *Config) Request() surrogate.Request {
	return surrogate.Request{
		Params: c.Params(),
		EllMax: c.Waveform.EllMax,
		TRef:   c.Waveform.TRef,
		FRef:   c.Waveform.FRef,
		Dt:     c.Waveform.Dt,
		Theta:  c.Waveform.Theta,
		Phi:    c.Waveform.Phi,
		Options: surrogate.Options{
			InitPhase:         c.Frame.InitPhase,
			InitQuat:          c.Frame.InitQuat,
			ReturnDynamics:    c.Frame.ReturnDynamics,
			UseLALConventions: c.Frame.LALConventions,
		},
	}
}
