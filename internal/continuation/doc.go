// Package continuation runs the quadratic penalty continuation.
//
// A [Driver] solves min f(x) + (1/R) g(x)^2 for each R of a caller supplied
// sequence, in order, warm-starting every stage from the previous stage's
// result:
//
//	d := continuation.New(model, newton.NewDefault(), continuation.WithVerifier(ref))
//	res, err := d.Run(objective.Point{-6, -6}, []float64{1e4, 1e3, 1e2})
//	final := res.Final()
//
// The trajectory always holds the start point plus one point per stage.
// Stages that hit the iteration cap are kept and logged; only a singular
// Hessian aborts the run. An optional [Verifier] cross-checks every stage
// with an independent optimizer without influencing the trajectory.
package continuation
