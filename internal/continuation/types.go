package continuation

import (
	"errors"

	"github.com/san-kum/penaltynewton/internal/newton"
	"github.com/san-kum/penaltynewton/internal/objective"
)

var (
	// ErrInvalidPenalty indicates an R value that is not a finite positive number.
	ErrInvalidPenalty = errors.New("continuation: penalty parameter must be finite and positive")

	// ErrInvalidStart indicates a start point with NaN or Inf components.
	ErrInvalidStart = errors.New("continuation: start point must be finite")
)

// Verification is the outcome of an independent minimization of one stage.
type Verification struct {
	Method    string          `json:"method"`
	Point     objective.Point `json:"point"`
	Converged bool            `json:"converged"`
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	// Distance to the damped Newton result of the same stage.
	Distance float64 `json:"distance"`
}

// Verifier minimizes eval at fixed penalty from start, independently of the
// damped Newton solver. Failing to converge is reported in the result.
type Verifier interface {
	Verify(eval objective.Evaluator, start objective.Point, p objective.Penalty) Verification
}

// Stage is one penalty step of a run.
type Stage struct {
	Index     int                `json:"index"`
	R         float64            `json:"r"`
	Start     objective.Point    `json:"start"`
	Result    newton.StageResult `json:"result"`
	Reference *Verification      `json:"reference,omitempty"`
}

type Result struct {
	Initial    objective.Point   `json:"initial"`
	Trajectory []objective.Point `json:"trajectory"`
	Stages     []Stage           `json:"stages"`
}

// Final returns the last trajectory point.
func (r *Result) Final() objective.Point {
	return r.Trajectory[len(r.Trajectory)-1]
}

// Penalties returns the R values in processing order.
func (r *Result) Penalties() []float64 {
	rs := make([]float64, len(r.Stages))
	for i, s := range r.Stages {
		rs[i] = s.R
	}
	return rs
}

// CapReached counts the stages that ended on the iteration cap.
func (r *Result) CapReached() int {
	n := 0
	for _, s := range r.Stages {
		if s.Result.Status == newton.IterationCapReached {
			n++
		}
	}
	return n
}

// ReferenceFailures counts verified stages whose reference run failed.
func (r *Result) ReferenceFailures() int {
	n := 0
	for _, s := range r.Stages {
		if s.Reference != nil && !s.Reference.Converged {
			n++
		}
	}
	return n
}
