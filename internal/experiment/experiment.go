// Package experiment turns a configuration into a wired continuation run.
package experiment

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/penaltynewton/internal/config"
	"github.com/san-kum/penaltynewton/internal/continuation"
	"github.com/san-kum/penaltynewton/internal/newton"
	"github.com/san-kum/penaltynewton/internal/storage"
)

type Experiment struct {
	cfg    *config.Config
	model  Model
	driver *continuation.Driver
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{cfg: cfg, logger: logger}
}

func (e *Experiment) Setup(registry *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	model, err := registry.GetModel(e.cfg.Model, e.cfg.Constants)
	if err != nil {
		return err
	}

	verifier, err := registry.GetVerifier(e.cfg.Verifier, e.cfg.Reference)
	if err != nil {
		return err
	}

	opts := []continuation.Option{continuation.WithLogger(e.logger)}
	if verifier != nil {
		opts = append(opts, continuation.WithVerifier(verifier))
	}

	e.model = model
	e.driver = continuation.New(model, newton.New(e.cfg.Tolerance, e.cfg.MaxIterations), opts...)
	return nil
}

func (e *Experiment) Run() (*continuation.Result, error) {
	if e.driver == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.logger.Info("starting continuation",
		"model", e.cfg.Model, "verifier", e.cfg.Verifier,
		"x0", e.cfg.Start().String(), "stages", len(e.cfg.Penalties))

	res, err := e.driver.Run(e.cfg.Start(), e.cfg.Penalties)
	if err != nil {
		return nil, err
	}

	e.logger.Info("continuation finished",
		"final", res.Final().String(), "residual", e.model.Residual(res.Final()),
		"capped", res.CapReached(), "ref_failures", res.ReferenceFailures())
	return res, nil
}

// Metadata describes the run for the run store.
func (e *Experiment) Metadata(res *continuation.Result) storage.RunMetadata {
	return storage.RunMetadata{
		Model:         e.cfg.Model,
		Verifier:      e.cfg.Verifier,
		Constants:     e.cfg.Constants,
		Initial:       e.cfg.Start(),
		Penalties:     append([]float64(nil), e.cfg.Penalties...),
		Tolerance:     e.cfg.Tolerance,
		MaxIterations: e.cfg.MaxIterations,
		Residual:      e.model.Residual(res.Final()),
	}
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}
