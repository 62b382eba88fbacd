// Package objective provides the closed-form objective model used by the
// penalty continuation solver.
//
// The model is the two-variable quadratic
//
//	f(x) = (x1-a)^2 + (x2-b)^2 + c*x1*x2
//
// optionally augmented by the quadratic penalty of the linear constraint
// g(x) = d*x1 + f*x2 + e:
//
//	f(x) + (1/R) g(x)^2
//
// The penalty is selected with a [Penalty] value: [NoPenalty] evaluates the
// bare quadratic, [WithR] adds the penalty term for a given R.
//
// # Example
//
//	q := objective.NewQuadratic(objective.Constants{A: -6, B: -7, C: 1, D: -3, E: -3, F: 2})
//	x := objective.Point{-6, -6}
//	v := q.Value(x, objective.WithR(100))
//	g := q.Gradient(x, objective.WithR(100))
//
// All evaluations are pure functions of (x, penalty, constants).
package objective
