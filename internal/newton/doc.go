// Package newton implements the damped Newton iteration used for one
// penalty stage.
//
// A [Solver] drives a point towards a stationary point of an
// [objective.Evaluator] for a fixed [objective.Penalty]. Each iteration
// solves H*d = g, moves to x - lambda*d and halves lambda for the following
// iteration whenever the move did not decrease the objective. The move is
// never retried with the smaller factor.
//
// Solve always returns a point unless the Hessian is singular. The
// [StageResult] status tells whether the gradient criterion was met or the
// iteration cap was hit.
package newton
