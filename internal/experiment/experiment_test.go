package experiment_test

import (
	"errors"
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/penaltynewton/internal/config"
	"github.com/san-kum/penaltynewton/internal/experiment"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ = Describe("Registry", func() {
	It("lists the quadratic model and every verifier", func() {
		r := experiment.NewRegistry()
		Expect(r.ListModels()).To(Equal([]string{"quadratic"}))
		Expect(r.ListVerifiers()).To(ConsistOf("none", "newton", "bfgs", "nelder-mead"))
	})

	It("returns no verifier for none", func() {
		v, err := experiment.NewRegistry().GetVerifier("none", config.ReferenceConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeNil())
	})

	It("rejects unknown names", func() {
		r := experiment.NewRegistry()
		_, err := r.GetModel("cubic", config.DefaultConfig().Constants)
		Expect(err).To(MatchError(ContainSubstring("unknown model")))
		_, err = r.GetVerifier("trust-region", config.ReferenceConfig{})
		Expect(err).To(MatchError(ContainSubstring("unknown verifier")))
	})
})

var _ = Describe("Experiment", func() {
	var registry *experiment.Registry

	BeforeEach(func() {
		registry = experiment.NewRegistry()
	})

	It("refuses to run before setup", func() {
		_, err := experiment.New(config.DefaultConfig(), quiet).Run()
		Expect(err).To(HaveOccurred())
	})

	It("runs the default configuration with reference checks", func() {
		cfg := config.DefaultConfig()
		exp := experiment.New(cfg, quiet)
		Expect(exp.Setup(registry)).To(Succeed())

		res, err := exp.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trajectory).To(HaveLen(len(cfg.Penalties) + 1))
		Expect(res.ReferenceFailures()).To(BeZero())

		for _, st := range res.Stages {
			Expect(st.Reference).NotTo(BeNil())
			Expect(st.Reference.Method).To(Equal("newton"))
			Expect(st.Reference.Distance).To(BeNumerically("<", 1e-4))
		}

		meta := exp.Metadata(res)
		Expect(meta.Model).To(Equal("quadratic"))
		Expect(math.Abs(meta.Residual)).To(BeNumerically("<", 0.01))
		Expect(meta.Penalties).To(Equal(cfg.Penalties))
	})

	It("runs presets without a verifier", func() {
		exp := experiment.New(config.GetPreset("short"), quiet)
		Expect(exp.Setup(registry)).To(Succeed())

		res, err := exp.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trajectory).To(HaveLen(4))
		for _, st := range res.Stages {
			Expect(st.Reference).To(BeNil())
		}
	})

	It("validates the configuration during setup", func() {
		cfg := config.DefaultConfig()
		cfg.Penalties = []float64{1, 0}
		err := experiment.New(cfg, quiet).Setup(registry)
		Expect(errors.Is(err, config.ErrInvalid)).To(BeTrue())
	})
})
