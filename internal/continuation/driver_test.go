package continuation_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/penaltynewton/internal/continuation"
	"github.com/san-kum/penaltynewton/internal/newton"
	"github.com/san-kum/penaltynewton/internal/objective"
)

var (
	refConstants = objective.Constants{A: -6, B: -7, C: 1, D: -3, E: -3, F: 2}
	refPenalties = []float64{10000, 1000, 100, 10, 1, 0.1, 0.01, 0.001, 0.0001}
	refStart     = objective.Point{-6, -6}
)

type stubVerifier struct {
	calls     []objective.Point
	penalties []objective.Penalty
	fail      bool
}

func (s *stubVerifier) Verify(eval objective.Evaluator, start objective.Point, p objective.Penalty) continuation.Verification {
	s.calls = append(s.calls, start)
	s.penalties = append(s.penalties, p)
	if s.fail {
		return continuation.Verification{Method: "stub", Point: objective.Point{1e9, 1e9}, Status: "IterationLimit", Message: "did not converge"}
	}
	return continuation.Verification{Method: "stub", Point: start, Converged: true, Status: "GradientThreshold"}
}

// overshootBowl is x1^2 + x2^2 with a Hessian sixteen times too small.
type overshootBowl struct{}

func (overshootBowl) Value(x objective.Point, p objective.Penalty) float64 {
	return x[0]*x[0] + x[1]*x[1]
}

func (overshootBowl) Gradient(x objective.Point, p objective.Penalty) objective.Gradient {
	return objective.Gradient{2 * x[0], 2 * x[1]}
}

func (overshootBowl) Hessian(x objective.Point, p objective.Penalty) objective.Hessian {
	return objective.Hessian{{0.125, 0}, {0, 0.125}}
}

var _ = Describe("Driver", func() {
	var (
		model  *objective.Quadratic
		logBuf *bytes.Buffer
		logger *slog.Logger
	)

	BeforeEach(func() {
		model = objective.NewQuadratic(refConstants)
		logBuf = &bytes.Buffer{}
		logger = slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	})

	Context("reference scenario", func() {
		var res *continuation.Result

		BeforeEach(func() {
			var err error
			res, err = continuation.New(model, newton.NewDefault(), continuation.WithLogger(logger)).Run(refStart, refPenalties)
			Expect(err).NotTo(HaveOccurred())
		})

		It("records the start point plus one point per stage", func() {
			Expect(res.Trajectory).To(HaveLen(len(refPenalties) + 1))
			Expect(res.Trajectory[0]).To(Equal(refStart))
			Expect(res.Stages).To(HaveLen(len(refPenalties)))
			Expect(res.Penalties()).To(Equal(refPenalties))
		})

		It("warm-starts each stage from the previous result", func() {
			for i, s := range res.Stages {
				Expect(s.Start).To(Equal(res.Trajectory[i]))
				Expect(res.Trajectory[i+1]).To(Equal(s.Result.Point))
			}
		})

		It("nearly satisfies the constraint at the last stage", func() {
			final := res.Final()
			Expect(math.Abs(model.Residual(final))).To(BeNumerically("<", 0.01))
			Expect(model.Gradient(final, objective.WithR(0.0001)).Norm()).To(BeNumerically("<", 1e-3))
			Expect(final.Distance(objective.Point{-78.0 / 19, -4.6578947368})).To(BeNumerically("<", 1e-3))
		})

		It("shrinks the constraint residual as R decreases", func() {
			prev := math.Inf(1)
			for _, p := range res.Trajectory[1:] {
				r := math.Abs(model.Residual(p))
				Expect(r).To(BeNumerically("<=", prev+1e-12))
				prev = r
			}
		})

		It("converges every stage", func() {
			Expect(res.CapReached()).To(BeZero())
			for _, s := range res.Stages {
				Expect(s.Result.Converged()).To(BeTrue())
				Expect(s.Reference).To(BeNil())
			}
		})

		It("is deterministic", func() {
			again, err := continuation.New(model, newton.NewDefault()).Run(refStart, refPenalties)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Trajectory).To(Equal(res.Trajectory))
		})
	})

	It("has an n+1 trajectory for any sequence length", func() {
		d := continuation.New(model, nil)
		for n := 0; n <= len(refPenalties); n++ {
			res, err := d.Run(refStart, refPenalties[:n])
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trajectory).To(HaveLen(n + 1))
		}
	})

	It("accepts penalties in any order", func() {
		res, err := continuation.New(model, nil).Run(refStart, []float64{0.1, 100, 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Penalties()).To(Equal([]float64{0.1, 100, 1}))
	})

	It("rejects invalid penalties", func() {
		d := continuation.New(model, nil)
		for _, bad := range [][]float64{{0}, {1, -1}, {math.NaN()}, {math.Inf(1)}} {
			_, err := d.Run(refStart, bad)
			Expect(errors.Is(err, continuation.ErrInvalidPenalty)).To(BeTrue())
		}
	})

	It("rejects a non-finite start", func() {
		_, err := continuation.New(model, nil).Run(objective.Point{math.NaN(), 0}, refPenalties)
		Expect(errors.Is(err, continuation.ErrInvalidStart)).To(BeTrue())
	})

	It("aborts on a singular hessian", func() {
		// every term vanishes except c = 2, giving [[2,2],[2,2]] for any R
		singular := objective.NewQuadratic(objective.Constants{C: 2})
		res, err := continuation.New(singular, nil, continuation.WithLogger(logger)).Run(objective.Point{1, 0}, refPenalties)
		Expect(res).To(BeNil())
		Expect(errors.Is(err, newton.ErrSingularHessian)).To(BeTrue())

		var stageErr *newton.StageError
		Expect(errors.As(err, &stageErr)).To(BeTrue())
		Expect(stageErr.Penalty).To(Equal(objective.WithR(refPenalties[0])))
		Expect(logBuf.String()).To(ContainSubstring("stage aborted"))
	})

	It("keeps capped stages and logs them", func() {
		d := continuation.New(overshootBowl{}, newton.New(1e-6, 2), continuation.WithLogger(logger))
		res, err := d.Run(objective.Point{1, 1}, []float64{1, 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trajectory).To(HaveLen(3))
		Expect(res.CapReached()).To(Equal(2))
		Expect(logBuf.String()).To(ContainSubstring("stage hit iteration cap"))
	})

	Context("with a verifier", func() {
		It("verifies every stage from its warm start without touching the trajectory", func() {
			v := &stubVerifier{}
			res, err := continuation.New(model, nil, continuation.WithVerifier(v)).Run(refStart, refPenalties[:3])
			Expect(err).NotTo(HaveOccurred())
			Expect(v.calls).To(Equal(res.Trajectory[:3]))
			Expect(v.penalties).To(Equal([]objective.Penalty{
				objective.WithR(10000), objective.WithR(1000), objective.WithR(100),
			}))
			for _, s := range res.Stages {
				Expect(s.Reference).NotTo(BeNil())
				Expect(s.Reference.Distance).To(BeNumerically("~", s.Start.Distance(s.Result.Point), 1e-12))
			}
			Expect(res.ReferenceFailures()).To(BeZero())
		})

		It("reports reference failures without aborting", func() {
			plain, err := continuation.New(model, nil).Run(refStart, refPenalties)
			Expect(err).NotTo(HaveOccurred())

			res, err := continuation.New(model, nil,
				continuation.WithVerifier(&stubVerifier{fail: true}),
				continuation.WithLogger(logger),
			).Run(refStart, refPenalties)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ReferenceFailures()).To(Equal(len(refPenalties)))
			Expect(res.Trajectory).To(Equal(plain.Trajectory))
			Expect(logBuf.String()).To(ContainSubstring("reference optimizer did not converge"))
		})
	})
})
