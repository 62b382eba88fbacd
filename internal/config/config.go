package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/penaltynewton/internal/objective"
)

const (
	DefaultModel             = "quadratic"
	DefaultVerifier          = "newton"
	DefaultTolerance         = 1e-6
	DefaultMaxIterations     = 100
	DefaultGradientThreshold = 1e-6
	DefaultMajorIterations   = 1000
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Model         string              `yaml:"model"`
	Verifier      string              `yaml:"verifier"`
	Constants     objective.Constants `yaml:"constants"`
	Initial       InitialConfig       `yaml:"initial"`
	Penalties     []float64           `yaml:"penalties"`
	Tolerance     float64             `yaml:"tolerance"`
	MaxIterations int                 `yaml:"max_iterations"`
	Reference     ReferenceConfig     `yaml:"reference"`
}

type InitialConfig struct {
	X1 float64 `yaml:"x1"`
	X2 float64 `yaml:"x2"`
}

type ReferenceConfig struct {
	GradientThreshold float64 `yaml:"gradient_threshold"`
	MajorIterations   int     `yaml:"major_iterations"`
}

// DefaultPenalties is the decade sequence from 1e4 down to 1e-4.
func DefaultPenalties() []float64 {
	return []float64{10000, 1000, 100, 10, 1, 0.1, 0.01, 0.001, 0.0001}
}

func DefaultConfig() *Config {
	return &Config{
		Model:         DefaultModel,
		Verifier:      DefaultVerifier,
		Constants:     objective.Constants{A: -6, B: -7, C: 1, D: -3, E: -3, F: 2},
		Initial:       InitialConfig{X1: -6, X2: -6},
		Penalties:     DefaultPenalties(),
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Reference: ReferenceConfig{
			GradientThreshold: DefaultGradientThreshold,
			MajorIterations:   DefaultMajorIterations,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto decodes the file at path onto base. Keys absent from the file
// keep the values already in base.
func LoadInto(path string, base *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, base)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Start() objective.Point {
	return objective.Point{c.Initial.X1, c.Initial.X2}
}

func (c *Config) Validate() error {
	if c.Tolerance <= 0 || math.IsNaN(c.Tolerance) {
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalid, c.Tolerance)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations must be at least 1, got %d", ErrInvalid, c.MaxIterations)
	}
	if !c.Start().IsValid() {
		return fmt.Errorf("%w: initial point must be finite", ErrInvalid)
	}
	for i, r := range c.Penalties {
		if !(r > 0) || math.IsInf(r, 0) {
			return fmt.Errorf("%w: penalties[%d]=%g must be finite and positive", ErrInvalid, i, r)
		}
	}
	if c.Verifier != "none" {
		if c.Reference.GradientThreshold <= 0 {
			return fmt.Errorf("%w: reference.gradient_threshold must be positive", ErrInvalid)
		}
		if c.Reference.MajorIterations < 1 {
			return fmt.Errorf("%w: reference.major_iterations must be at least 1", ErrInvalid)
		}
	}
	return nil
}

// Clone returns a deep copy so presets are never mutated by callers.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Penalties = append([]float64(nil), c.Penalties...)
	return &cp
}
