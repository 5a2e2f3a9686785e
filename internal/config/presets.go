package config

import "sort"

var Presets = map[string]*Config{
	"aligned": {
		Binary: BinaryConfig{MassRatio: 1.2, ChiA: [3]float64{0, 0, 0.3}, ChiB: [3]float64{0, 0, -0.1}},
	},
	"antialigned": {
		Binary: BinaryConfig{MassRatio: 1.5, ChiA: [3]float64{0, 0, -0.6}, ChiB: [3]float64{0, 0, -0.4}},
	},
	"precessing": {
		Binary: BinaryConfig{MassRatio: 1.5, ChiA: [3]float64{0.5, 0.2, 0.3}, ChiB: [3]float64{-0.3, 0.4, 0.1}},
		Frame:  FrameConfig{ReturnDynamics: true},
	},
	"equal": {
		Binary: BinaryConfig{MassRatio: 1},
	},
}

// GetPreset returns a copy of the named preset on top of the defaults, or
// nil when there is none.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Binary = p.Binary
	cfg.Frame = p.Frame
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
