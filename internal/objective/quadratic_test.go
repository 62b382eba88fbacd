package objective

import (
	"math"
	"testing"
)

var refConstants = Constants{A: -6, B: -7, C: 1, D: -3, E: -3, F: 2}

func TestQuadraticValue(t *testing.T) {
	q := NewQuadratic(refConstants)
	x := Point{-6, -6}

	// (0)^2 + (1)^2 + 36
	if v := q.Value(x, NoPenalty); math.Abs(v-37) > 1e-12 {
		t.Errorf("expected value 37, got %f", v)
	}

	// residual = 18 - 12 - 3 = 3
	if r := q.Residual(x); math.Abs(r-3) > 1e-12 {
		t.Errorf("expected residual 3, got %f", r)
	}

	want := 37 + 9.0/10
	if v := q.Value(x, WithR(10)); math.Abs(v-want) > 1e-12 {
		t.Errorf("expected penalized value %f, got %f", want, v)
	}
}

func TestQuadraticGradientMatchesFiniteDifference(t *testing.T) {
	q := NewQuadratic(refConstants)
	points := []Point{{-6, -6}, {0, 0}, {1.5, -2.25}, {-4.1, -4.6}}
	penalties := []Penalty{NoPenalty, WithR(1000), WithR(1), WithR(0.01)}

	const h = 1e-6
	for _, x := range points {
		for _, p := range penalties {
			g := q.Gradient(x, p)
			for i := 0; i < 2; i++ {
				xp, xm := x, x
				xp[i] += h
				xm[i] -= h
				fd := (q.Value(xp, p) - q.Value(xm, p)) / (2 * h)
				tol := 1e-5 * math.Max(1, math.Abs(fd))
				if math.Abs(fd-g[i]) > tol {
					t.Errorf("x=%v %v: d/dx%d expected %.8f, got %.8f", x, p, i+1, fd, g[i])
				}
			}
		}
	}
}

func TestQuadraticHessian(t *testing.T) {
	q := NewQuadratic(refConstants)

	h := q.Hessian(Point{3, 4}, NoPenalty)
	if h != (Hessian{{2, 1}, {1, 2}}) {
		t.Errorf("unexpected unconstrained hessian %v", h)
	}

	h = q.Hessian(Point{3, 4}, WithR(2))
	want := Hessian{{2 + 9, 1 - 6}, {1 - 6, 2 + 4}}
	if h != want {
		t.Errorf("expected %v, got %v", want, h)
	}

	if h[0][1] != h[1][0] {
		t.Error("hessian should be symmetric")
	}

	if q.Hessian(Point{-100, 7}, WithR(2)) != h {
		t.Error("hessian should not depend on position")
	}
}

func TestPenalty(t *testing.T) {
	if NoPenalty.Active() {
		t.Error("NoPenalty should be inactive")
	}

	r, ok := WithR(0.5).R()
	if !ok || r != 0.5 {
		t.Errorf("expected active R=0.5, got %v %v", r, ok)
	}
}

func TestPointOps(t *testing.T) {
	p := Point{3, 4}
	if p.Norm() != 5 {
		t.Errorf("expected norm 5, got %f", p.Norm())
	}
	if p.Add(Point{1, 1}) != (Point{4, 5}) {
		t.Error("add failed")
	}
	if p.Scale(0.5) != (Point{1.5, 2}) {
		t.Error("scale failed")
	}
	if !p.IsValid() || (Point{math.NaN(), 0}).IsValid() {
		t.Error("validity check failed")
	}
}
