package objective

// Constants are the coefficients of the quadratic objective and of the
// linear constraint d*x1 + f*x2 + e = 0.
type Constants struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
	D float64 `yaml:"d" json:"d"`
	E float64 `yaml:"e" json:"e"`
	F float64 `yaml:"f" json:"f"`
}

// Quadratic is the objective (x1-a)^2 + (x2-b)^2 + c*x1*x2 with an
// optional quadratic penalty on the linear constraint.
type Quadratic struct {
	k Constants
}

func NewQuadratic(k Constants) *Quadratic {
	return &Quadratic{k: k}
}

// Constants returns a copy of the model coefficients.
func (q *Quadratic) Constants() Constants {
	return q.k
}

// Residual returns the constraint residual d*x1 + f*x2 + e.
func (q *Quadratic) Residual(x Point) float64 {
	return q.k.D*x[0] + q.k.F*x[1] + q.k.E
}

func (q *Quadratic) Value(x Point, p Penalty) float64 {
	k := q.k
	d1 := x[0] - k.A
	d2 := x[1] - k.B
	v := d1*d1 + d2*d2 + k.C*x[0]*x[1]
	if r, ok := p.R(); ok {
		g := q.Residual(x)
		v += (1 / r) * g * g
	}
	return v
}

func (q *Quadratic) Gradient(x Point, p Penalty) Gradient {
	k := q.k
	grad := Gradient{
		2*(x[0]-k.A) + k.C*x[1],
		2*(x[1]-k.B) + k.C*x[0],
	}
	if r, ok := p.R(); ok {
		s := (2 / r) * q.Residual(x)
		grad[0] += s * k.D
		grad[1] += s * k.F
	}
	return grad
}

// Hessian does not depend on x for this family; it is still computed on
// every call so callers never hold a stale matrix for a different R.
func (q *Quadratic) Hessian(x Point, p Penalty) Hessian {
	k := q.k
	h := Hessian{
		{2, k.C},
		{k.C, 2},
	}
	if r, ok := p.R(); ok {
		s := 2 / r
		h[0][0] += s * k.D * k.D
		h[0][1] += s * k.D * k.F
		h[1][0] += s * k.D * k.F
		h[1][1] += s * k.F * k.F
	}
	return h
}
