package newton

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/penaltynewton/internal/objective"
)

const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 100
)

// Status tags how a stage ended.
type Status int

const (
	Converged Status = iota
	IterationCapReached
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case IterationCapReached:
		return "iteration_cap"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "converged":
		*s = Converged
	case "iteration_cap":
		*s = IterationCapReached
	default:
		return fmt.Errorf("newton: unknown status %q", text)
	}
	return nil
}

// Iteration records one pass of the Newton loop.
type Iteration struct {
	Index    int             `json:"index"`
	Point    objective.Point `json:"point"`
	Value    float64         `json:"value"`
	GradNorm float64         `json:"grad_norm"`
	// Damping is the factor applied to this iteration's step.
	Damping float64 `json:"damping"`
	// Improved is false when the step did not decrease the objective and
	// the damping was halved for the next iteration.
	Improved bool `json:"improved"`
}

// StageResult is the outcome of one fixed-penalty solve.
type StageResult struct {
	Point      objective.Point `json:"point"`
	Status     Status          `json:"status"`
	Iterations int             `json:"iterations"`
	Halvings   int             `json:"halvings"`
	Damping    float64         `json:"damping"`
	GradNorm   float64         `json:"grad_norm"`
	Value      float64         `json:"value"`
	Trace      []Iteration     `json:"trace,omitempty"`
}

func (r StageResult) Converged() bool { return r.Status == Converged }

type Solver struct {
	Tolerance     float64
	MaxIterations int
}

func New(tol float64, maxIter int) *Solver {
	return &Solver{Tolerance: tol, MaxIterations: maxIter}
}

func NewDefault() *Solver {
	return New(DefaultTolerance, DefaultMaxIterations)
}

func (s *Solver) validate() error {
	if !(s.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance %g must be positive", ErrInvalidSettings, s.Tolerance)
	}
	if s.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations %d must be at least 1", ErrInvalidSettings, s.MaxIterations)
	}
	return nil
}

// Solve runs the damped Newton iteration from x0 for the penalty p.
//
// The gradient test happens before any step, so a converged result is the
// point that passed the test. When MaxIterations passes without
// convergence, the last point is returned with IterationCapReached and a
// nil error. The only error returned during iteration wraps
// ErrSingularHessian.
func (s *Solver) Solve(eval objective.Evaluator, x0 objective.Point, p objective.Penalty) (StageResult, error) {
	if err := s.validate(); err != nil {
		return StageResult{}, err
	}

	res := StageResult{
		Status: IterationCapReached,
		Trace:  make([]Iteration, 0, s.MaxIterations),
	}

	x := x0
	damping := 1.0

	for i := 0; i < s.MaxIterations; i++ {
		g := eval.Gradient(x, p)
		h := eval.Hessian(x, p)
		fx := eval.Value(x, p)
		gn := g.Norm()

		res.GradNorm = gn
		res.Value = fx

		if gn < s.Tolerance {
			res.Status = Converged
			break
		}

		dir, err := solve(h, g)
		if err != nil {
			return res, &StageError{Penalty: p, Iteration: i, Point: x, Hessian: h, Wrapped: err}
		}

		next := x.Add(dir.Scale(-damping))
		fNext := eval.Value(next, p)

		it := Iteration{
			Index:    i,
			Point:    x,
			Value:    fx,
			GradNorm: gn,
			Damping:  damping,
			Improved: fNext < fx,
		}
		res.Trace = append(res.Trace, it)

		if !it.Improved {
			damping *= 0.5
			res.Halvings++
		}

		x = next
		res.Iterations++
	}

	if res.Status == IterationCapReached {
		res.Value = eval.Value(x, p)
		res.GradNorm = eval.Gradient(x, p).Norm()
	}
	res.Point = x
	res.Damping = damping
	return res, nil
}

// solve returns d with H*d = g using an LU factorization. Singular and
// near-singular systems are reported as ErrSingularHessian.
func solve(h objective.Hessian, g objective.Gradient) (objective.Point, error) {
	if det := h.Det(); det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return objective.Point{}, fmt.Errorf("%w: determinant %g", ErrSingularHessian, det)
	}

	a := mat.NewDense(2, 2, []float64{
		h[0][0], h[0][1],
		h[1][0], h[1][1],
	})
	b := mat.NewVecDense(2, []float64{g[0], g[1]})

	var d mat.VecDense
	if err := d.SolveVec(a, b); err != nil {
		return objective.Point{}, fmt.Errorf("%w: %v", ErrSingularHessian, err)
	}

	dir := objective.Point{d.AtVec(0), d.AtVec(1)}
	if !dir.IsValid() {
		return objective.Point{}, fmt.Errorf("%w: non-finite newton step", ErrSingularHessian)
	}
	return dir, nil
}
