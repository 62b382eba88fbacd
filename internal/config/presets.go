package config

import (
	"sort"

	"github.com/san-kum/penaltynewton/internal/objective"
)

var Presets = map[string]*Config{
	// the textbook run: x0=(-6,-6), decades 1e4..1e-4
	"reference": DefaultConfig(),
	"steep": {
		Model: DefaultModel, Verifier: DefaultVerifier,
		Constants:     refConstants(),
		Initial:       InitialConfig{X1: -6, X2: -6},
		Penalties:     []float64{1, 1e-1, 1e-3, 1e-5},
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Reference:     ReferenceConfig{GradientThreshold: DefaultGradientThreshold, MajorIterations: DefaultMajorIterations},
	},
	"loose": {
		Model: DefaultModel, Verifier: "bfgs",
		Constants:     refConstants(),
		Initial:       InitialConfig{X1: 10, X2: 5},
		Penalties:     DefaultPenalties(),
		Tolerance:     1e-3,
		MaxIterations: 20,
		Reference:     ReferenceConfig{GradientThreshold: 1e-3, MajorIterations: 200},
	},
	"short": {
		Model: DefaultModel, Verifier: "none",
		Constants:     refConstants(),
		Initial:       InitialConfig{X1: -6, X2: -6},
		Penalties:     []float64{100, 1, 0.01},
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	},
}

func refConstants() objective.Constants {
	return DefaultConfig().Constants
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
