package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/penaltynewton/internal/config"
	"github.com/san-kum/penaltynewton/internal/continuation"
	"github.com/san-kum/penaltynewton/internal/objective"
	"github.com/san-kum/penaltynewton/internal/reference"
)

// Model is an evaluator that also knows its constraint residual.
type Model interface {
	objective.Evaluator
	Residual(x objective.Point) float64
}

type Registry struct {
	models    map[string]func(objective.Constants) Model
	verifiers map[string]func(config.ReferenceConfig) (continuation.Verifier, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		models:    make(map[string]func(objective.Constants) Model),
		verifiers: make(map[string]func(config.ReferenceConfig) (continuation.Verifier, error)),
	}

	r.models["quadratic"] = func(k objective.Constants) Model { return objective.NewQuadratic(k) }

	r.verifiers["none"] = func(config.ReferenceConfig) (continuation.Verifier, error) { return nil, nil }
	for _, name := range reference.Methods() {
		method := name
		r.verifiers[method] = func(rc config.ReferenceConfig) (continuation.Verifier, error) {
			o, err := reference.New(method)
			if err != nil {
				return nil, err
			}
			o.GradientThreshold = rc.GradientThreshold
			o.MajorIterations = rc.MajorIterations
			return o, nil
		}
	}

	return r
}

func (r *Registry) GetModel(name string, k objective.Constants) (Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(k), nil
}

// GetVerifier returns nil for "none".
func (r *Registry) GetVerifier(name string, rc config.ReferenceConfig) (continuation.Verifier, error) {
	fn, ok := r.verifiers[name]
	if !ok {
		return nil, fmt.Errorf("unknown verifier: %s (available: %v)", name, r.ListVerifiers())
	}
	return fn(rc)
}

func (r *Registry) ListModels() []string {
	return keys(r.models)
}

func (r *Registry) ListVerifiers() []string {
	return keys(r.verifiers)
}

func keys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
