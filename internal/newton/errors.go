package newton

import (
	"errors"
	"fmt"

	"github.com/san-kum/penaltynewton/internal/objective"
)

var (
	// ErrSingularHessian indicates the Newton system could not be solved
	// at the current point.
	ErrSingularHessian = errors.New("newton: hessian is singular or ill-conditioned")

	// ErrInvalidSettings indicates a non-positive tolerance or iteration cap.
	ErrInvalidSettings = errors.New("newton: invalid solver settings")
)

// StageError wraps an error with the iteration context it occurred in.
type StageError struct {
	Penalty   objective.Penalty
	Iteration int
	Point     objective.Point
	Hessian   objective.Hessian
	Wrapped   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%v (%s, iteration %d, x=%s, det=%g)",
		e.Wrapped, e.Penalty, e.Iteration, e.Point, e.Hessian.Det())
}

func (e *StageError) Unwrap() error {
	return e.Wrapped
}
