package experiment_test

import (
	"context"
	"errors"
	"math"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/experiment"
	"github.com/san-kum/geodesim/internal/physics"
)

func orbit(l, vr0, r0, duration float64) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Orbit = config.OrbitConfig{Mass: 1, AngularMomentum: l, RadialVelocity: vr0, Radius: r0}
	cfg.Solver.Duration = duration
	return cfg
}

func run(cfg *config.Config) *experiment.Outcome {
	out, err := experiment.New(cfg).Run(context.Background())
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return out
}

var _ = Describe("Geodesic runs", func() {
	Describe("orbit families", func() {
		It("keeps a particle released at the potential minimum on a circle", func() {
			stable, _, ok := physics.New(1, 4).CircularOrbits()
			Expect(ok).To(BeTrue())
			Expect(stable).To(BeNumerically("~", 12, 1e-12))

			out := run(orbit(4, 0, stable, 1000))
			Expect(out.Result.Termination).To(Equal(dynamo.TerminationCompleted))
			Expect(out.Classification.Label).To(Equal(analysis.LabelCircular))
			for _, r := range out.Trajectory.R {
				Expect(math.Abs(r - stable)).To(BeNumerically("<", 1e-3*stable))
			}
		})

		It("scatters a fast particle with large angular momentum", func() {
			out := run(orbit(10, 5, 20, 1000))
			Expect(out.Result.Termination).To(Equal(physics.TerminationEscape))
			Expect(out.Classification.Label).To(Equal(analysis.LabelScattering))
			Expect(out.Classification.Apoapses).To(BeEmpty())
			Expect(out.Trajectory.R[out.Trajectory.Len()-1]).To(BeNumerically("~", out.EscapeRadius, 1e-8))
		})

		It("captures an inbound particle with little angular momentum", func() {
			out := run(orbit(1, -0.5, 5, 1000))
			Expect(out.Result.Termination).To(Equal(physics.TerminationCapture))
			Expect(out.Classification.Label).To(Equal(analysis.LabelPlunging))

			r := out.Trajectory.R
			for i := 1; i < len(r); i++ {
				Expect(r[i]).To(BeNumerically("<=", r[i-1]))
			}
			Expect(r[len(r)-1]).To(BeNumerically("~", 2, 1e-8))
		})

		It("labels a perturbed circular orbit as precessing", func() {
			out := run(orbit(4, 0, 13, 3000))
			c := out.Classification
			Expect(c.Label).To(Equal(analysis.LabelPrecessing))
			Expect(len(c.Periapses)).To(BeNumerically(">=", 2))
			Expect(c.RMax).To(BeNumerically("~", 13, 1e-6))
			Expect(c.RMin).To(BeNumerically("~", 11.12, 0.01))
			for _, p := range c.Periapses {
				Expect(p.R).To(BeNumerically("~", c.Periapses[0].R, 1e-6))
			}
			// Relativistic periapsis advance is positive.
			Expect(c.PrecessionPerOrbit).To(BeNumerically(">", 0))
			Expect(c.RadialPeriod).To(BeNumerically("~", 322, 2))
		})

		It("reports indeterminate when the run ends before a full radial cycle", func() {
			out := run(orbit(4, 0, 13, 200))
			Expect(out.Classification.Label).To(Equal(analysis.LabelIndeterminate))
		})
	})

	Describe("the constraint E² = v_r² + V_eff", func() {
		DescribeTable("holds at every sample",
			func(l, vr0, r0, duration float64) {
				out := run(orbit(l, vr0, r0, duration))
				e0 := out.Model.Energy(out.Trajectory.State(0))
				for i := range out.Trajectory.Tau {
					Expect(out.Model.Energy(out.Trajectory.State(i))).To(BeNumerically("~", e0, 1e-8))
				}
				Expect(out.ConstraintResidual).To(BeNumerically("<", 1e-8))
			},
			Entry("circular", 4.0, 0.0, 12.0, 500.0),
			Entry("precessing", 4.0, 0.0, 13.0, 1000.0),
			Entry("scattering", 10.0, 5.0, 20.0, 1000.0),
			Entry("plunging", 1.0, -0.5, 5.0, 1000.0),
		)
	})

	Describe("reversing v_r0", func() {
		It("leaves a near-circular orbit circular", func() {
			a := run(orbit(4, 1e-5, 12, 1000))
			b := run(orbit(4, -1e-5, 12, 1000))
			Expect(a.Classification.Label).To(Equal(analysis.LabelCircular))
			Expect(b.Classification.Label).To(Equal(analysis.LabelCircular))
		})

		It("keeps the orbit family and its turning radii", func() {
			a := run(orbit(4, 0.01, 12.5, 3000)).Classification
			b := run(orbit(4, -0.01, 12.5, 3000)).Classification
			Expect(a.Label).To(Equal(analysis.LabelPrecessing))
			Expect(b.Label).To(Equal(a.Label))
			Expect(b.RMin).To(BeNumerically("~", a.RMin, 1e-4))
			Expect(b.RMax).To(BeNumerically("~", a.RMax, 1e-4))
			Expect(b.Periapses[0].Tau).To(BeNumerically("<", a.Periapses[0].Tau))
		})
	})

	It("is deterministic", func() {
		cfg := orbit(4, 0.02, 12.5, 800)
		a := run(cfg)
		b := run(cfg)
		Expect(cmp.Diff(a.Trajectory, b.Trajectory)).To(BeEmpty())
		Expect(cmp.Diff(a.Classification, b.Classification)).To(BeEmpty())
	})

	Describe("demonstration presets", func() {
		DescribeTable("classify as named",
			func(name string, want analysis.Label) {
				out := run(config.GetPreset(name))
				Expect(out.Classification.Label).To(Equal(want), out.Classification.Reason)
			},
			Entry("circular", "circular", analysis.LabelCircular),
			Entry("precessing", "precessing", analysis.LabelPrecessing),
			Entry("scattering", "scattering", analysis.LabelScattering),
			Entry("plunging", "plunging", analysis.LabelPlunging),
		)
	})

	Describe("errors", func() {
		DescribeTable("rejects a start at or inside the horizon",
			func(r0 float64) {
				out, err := experiment.New(orbit(4, 0, r0, 100)).Run(context.Background())
				Expect(out).To(BeNil())
				Expect(errors.Is(err, physics.ErrInsideHorizon)).To(BeTrue())
				Expect(dynamo.KindOf(err)).To(Equal(dynamo.KindDomain))
			},
			Entry("at the horizon", 2.0),
			Entry("inside", 1.5),
		)

		It("rejects a non-finite radius", func() {
			_, err := experiment.New(orbit(4, 0, math.NaN(), 100)).Run(context.Background())
			Expect(dynamo.KindOf(err)).To(Equal(dynamo.KindDomain))
		})

		It("rejects a start beyond the escape radius", func() {
			cfg := orbit(4, 0, 50, 100)
			cfg.Events.EscapeRadius = 40
			_, err := experiment.New(cfg).Run(context.Background())
			Expect(dynamo.KindOf(err)).To(Equal(dynamo.KindConfig))
		})

		It("rejects an unknown integrator", func() {
			cfg := orbit(4, 0, 12, 100)
			cfg.Integrator = "leapfrog"
			_, err := experiment.New(cfg).Run(context.Background())
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})

		It("reports solver exhaustion as numerical, not as a label", func() {
			cfg := orbit(4, 0, 13, 1000)
			cfg.Solver.MaxSteps = 10
			out, err := experiment.New(cfg).Run(context.Background())
			Expect(dynamo.KindOf(err)).To(Equal(dynamo.KindNumerical))
			Expect(errors.Is(err, dynamo.ErrMaxSteps)).To(BeTrue())

			var se *dynamo.SimulationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(out).NotTo(BeNil())
			Expect(out.Result.States).NotTo(BeEmpty())
			Expect(out.Trajectory).To(BeNil())
			Expect(out.Classification.Label).To(BeEmpty())
		})

		It("stops when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := experiment.New(orbit(4, 0, 13, 1000)).Run(ctx)
			Expect(dynamo.KindOf(err)).To(Equal(dynamo.KindCanceled))
		})
	})

	Describe("integrator comparison", func() {
		It("runs every integrator on the same orbit", func() {
			names := experiment.NewRegistry().ListIntegrators()
			Expect(names).To(Equal([]string{"euler", "rk4", "rk45"}))

			outcomes, errs := experiment.Compare(context.Background(), orbit(4, 0, 12, 300), []string{"rk45", "rk4"})
			Expect(errs).To(HaveLen(2))
			for i, out := range outcomes {
				Expect(errs[i]).NotTo(HaveOccurred())
				Expect(out.Classification.Label).To(Equal(analysis.LabelCircular))
			}
			Expect(outcomes[0].Config.Integrator).To(Equal("rk45"))
			Expect(outcomes[1].Config.Integrator).To(Equal("rk4"))
		})

		It("marks every remaining integrator canceled once the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			outcomes, errs := experiment.Compare(ctx, orbit(4, 0, 12, 10), []string{"rk45", "rk4", "euler"})
			Expect(outcomes).To(HaveLen(3))
			for i := range errs {
				Expect(errs[i]).To(MatchError(dynamo.ErrContextCanceled))
				Expect(dynamo.KindOf(errs[i])).To(Equal(dynamo.KindCanceled))
			}
			Expect(outcomes[1]).To(BeNil())
			Expect(outcomes[2]).To(BeNil())
		})
	})

	It("records metrics for every run", func() {
		out := run(orbit(1, -0.5, 5, 1000))
		Expect(out.Result.Metrics).To(HaveKey("energy_drift"))
		Expect(out.Result.Metrics["horizon_margin"]).To(BeNumerically("~", 1, 1e-8))
	})
})
