package config

import (
	"sort"

	"github.com/san-kum/hydrosim/internal/kinetics"
)

var Presets = map[string]kinetics.Conditions{
	"bagasse": {
		Temperature: 195, SolidLoading: 100, CelluloseFraction: 0.348, HemicelluloseFraction: 0.230, TimeFinal: 40,
	},
	"mild": {
		Temperature: 180, SolidLoading: 100, CelluloseFraction: 0.348, HemicelluloseFraction: 0.230, TimeFinal: 60,
	},
	"severe": {
		Temperature: 210, SolidLoading: 100, CelluloseFraction: 0.348, HemicelluloseFraction: 0.230, TimeFinal: 20,
	},
	"extended": {
		Temperature: 195, SolidLoading: 100, CelluloseFraction: 0.348, HemicelluloseFraction: 0.230, TimeFinal: 80,
	},
	"high-solids": {
		Temperature: 195, SolidLoading: 200, CelluloseFraction: 0.348, HemicelluloseFraction: 0.230, TimeFinal: 40,
	},
}

// GetPreset returns a default config whose conditions come from the named
// preset, or nil if there is no such preset.
func GetPreset(name string) *Config {
	conditions, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Conditions = conditions
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
