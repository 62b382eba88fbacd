package continuation

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/penaltynewton/internal/newton"
	"github.com/san-kum/penaltynewton/internal/objective"
)

type Driver struct {
	model    objective.Evaluator
	solver   *newton.Solver
	verifier Verifier
	logger   *slog.Logger
}

type Option func(*Driver)

// WithVerifier cross-checks every stage with v.
func WithVerifier(v Verifier) Option {
	return func(d *Driver) { d.verifier = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

func New(model objective.Evaluator, solver *newton.Solver, opts ...Option) *Driver {
	if solver == nil {
		solver = newton.NewDefault()
	}
	d := &Driver{
		model:  model,
		solver: solver,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run solves one stage per value of rs, in the given order, each starting
// from the previous stage's point. A singular Hessian aborts the run; every
// other outcome is recorded in the result.
func (d *Driver) Run(x0 objective.Point, rs []float64) (*Result, error) {
	if err := validate(x0, rs); err != nil {
		return nil, err
	}

	res := &Result{
		Initial:    x0,
		Trajectory: make([]objective.Point, 0, len(rs)+1),
		Stages:     make([]Stage, 0, len(rs)),
	}
	res.Trajectory = append(res.Trajectory, x0)

	x := x0
	for i, r := range rs {
		p := objective.WithR(r)

		sr, err := d.solver.Solve(d.model, x, p)
		if err != nil {
			d.logger.Error("stage aborted", "stage", i, "R", r, "err", err)
			return nil, fmt.Errorf("stage %d (R=%g): %w", i, r, err)
		}

		stage := Stage{Index: i, R: r, Start: x, Result: sr}
		d.logStage(stage)

		if d.verifier != nil {
			v := d.verifier.Verify(d.model, x, p)
			if v.Converged {
				v.Distance = v.Point.Distance(sr.Point)
			} else {
				d.logger.Warn("reference optimizer did not converge",
					"stage", i, "R", r, "method", v.Method, "status", v.Status, "msg", v.Message)
			}
			stage.Reference = &v
		}

		res.Stages = append(res.Stages, stage)
		res.Trajectory = append(res.Trajectory, sr.Point)
		x = sr.Point
	}

	return res, nil
}

func (d *Driver) logStage(s Stage) {
	sr := s.Result
	if sr.Status == newton.IterationCapReached {
		d.logger.Warn("stage hit iteration cap",
			"stage", s.Index, "R", s.R, "iterations", sr.Iterations, "grad_norm", sr.GradNorm)
		return
	}
	d.logger.Debug("stage converged",
		"stage", s.Index, "R", s.R, "iterations", sr.Iterations,
		"halvings", sr.Halvings, "x1", sr.Point[0], "x2", sr.Point[1])
}

func validate(x0 objective.Point, rs []float64) error {
	if !x0.IsValid() {
		return fmt.Errorf("%w: %v", ErrInvalidStart, x0)
	}
	for i, r := range rs {
		if !(r > 0) || math.IsInf(r, 0) {
			return fmt.Errorf("%w: R[%d]=%g", ErrInvalidPenalty, i, r)
		}
	}
	return nil
}
