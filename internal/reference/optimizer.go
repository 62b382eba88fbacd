// Package reference cross-checks penalty stages with gonum's general
// purpose minimizers.
package reference

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/penaltynewton/internal/continuation"
	"github.com/san-kum/penaltynewton/internal/objective"
)

const (
	DefaultGradientThreshold = 1e-6
	DefaultMajorIterations   = 1000
)

var methods = map[string]func() optimize.Method{
	"newton":      func() optimize.Method { return &optimize.Newton{} },
	"bfgs":        func() optimize.Method { return &optimize.BFGS{} },
	"nelder-mead": func() optimize.Method { return &optimize.NelderMead{} },
}

// Methods lists the supported method names.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Optimizer minimizes one penalty stage with a gonum method. It implements
// continuation.Verifier.
type Optimizer struct {
	method            string
	newMethod         func() optimize.Method
	GradientThreshold float64
	MajorIterations   int
}

func New(method string) (*Optimizer, error) {
	fn, ok := methods[method]
	if !ok {
		return nil, fmt.Errorf("unknown reference method: %s (available: %v)", method, Methods())
	}
	return &Optimizer{
		method:            method,
		newMethod:         fn,
		GradientThreshold: DefaultGradientThreshold,
		MajorIterations:   DefaultMajorIterations,
	}, nil
}

func (o *Optimizer) Method() string { return o.method }

func (o *Optimizer) Verify(eval objective.Evaluator, start objective.Point, p objective.Penalty) continuation.Verification {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return eval.Value(objective.Point{x[0], x[1]}, p)
		},
		Grad: func(grad, x []float64) {
			g := eval.Gradient(objective.Point{x[0], x[1]}, p)
			grad[0], grad[1] = g[0], g[1]
		},
		Hess: func(hess *mat.SymDense, x []float64) {
			h := eval.Hessian(objective.Point{x[0], x[1]}, p)
			hess.SetSym(0, 0, h[0][0])
			hess.SetSym(0, 1, h[0][1])
			hess.SetSym(1, 1, h[1][1])
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: o.GradientThreshold,
		MajorIterations:   o.MajorIterations,
	}

	v := continuation.Verification{Method: o.method}

	result, err := optimize.Minimize(problem, []float64{start[0], start[1]}, settings, o.newMethod())
	if result != nil && len(result.X) == 2 {
		v.Point = objective.Point{result.X[0], result.X[1]}
		v.Status = result.Status.String()
	}
	if err != nil {
		v.Message = err.Error()
		return v
	}
	if result == nil || len(result.X) != 2 {
		v.Message = "no result"
		return v
	}

	if !v.Point.IsValid() {
		v.Message = fmt.Sprintf("non-finite point %v", v.Point)
		v.Point = objective.Point{}
		return v
	}

	v.Converged = converged(result.Status)
	if !v.Converged {
		v.Message = fmt.Sprintf("terminated with status %s", result.Status)
	}
	return v
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence,
		optimize.MethodConverge, optimize.StepConvergence, optimize.FunctionThreshold:
		return true
	}
	return false
}
