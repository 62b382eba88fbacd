package objective

import (
	"fmt"
	"math"
)

// Point is a position (x1, x2) in the plane.
type Point [2]float64

func (p Point) X1() float64 { return p[0] }
func (p Point) X2() float64 { return p[1] }

func (p Point) Add(q Point) Point {
	return Point{p[0] + q[0], p[1] + q[1]}
}

func (p Point) Sub(q Point) Point {
	return Point{p[0] - q[0], p[1] - q[1]}
}

func (p Point) Scale(factor float64) Point {
	return Point{p[0] * factor, p[1] * factor}
}

func (p Point) Norm() float64 {
	return math.Hypot(p[0], p[1])
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Norm()
}

func (p Point) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p[0], p[1])
}

// Gradient holds the partial derivatives (df/dx1, df/dx2).
type Gradient [2]float64

func (g Gradient) Norm() float64 {
	return math.Hypot(g[0], g[1])
}

// Hessian is the symmetric 2x2 matrix of second partial derivatives,
// stored row-major.
type Hessian [2][2]float64

// Det returns the determinant of h.
func (h Hessian) Det() float64 {
	return h[0][0]*h[1][1] - h[0][1]*h[1][0]
}

// Penalty selects whether an evaluation includes the constraint penalty
// term and, if so, with which parameter R.
type Penalty struct {
	r      float64
	active bool
}

// NoPenalty evaluates the unconstrained quadratic.
var NoPenalty = Penalty{}

// WithR returns a penalty with parameter r. Smaller r enforces the
// constraint more strongly.
func WithR(r float64) Penalty {
	return Penalty{r: r, active: true}
}

// R returns the penalty parameter and whether the penalty is active.
func (p Penalty) R() (float64, bool) {
	return p.r, p.active
}

func (p Penalty) Active() bool { return p.active }

func (p Penalty) String() string {
	if !p.active {
		return "none"
	}
	return fmt.Sprintf("R=%g", p.r)
}

// Evaluator evaluates an objective, its gradient and its Hessian at a
// point for a given penalty.
type Evaluator interface {
	Value(x Point, p Penalty) float64
	Gradient(x Point, p Penalty) Gradient
	Hessian(x Point, p Penalty) Hessian
}
