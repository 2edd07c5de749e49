package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/physics"
	"github.com/san-kum/geodesim/internal/sim"
)

// Outcome is everything one run produced. Trajectory and Classification are
// nil/zero when the solver failed.
type Outcome struct {
	Config         *config.Config
	Model          physics.Schwarzschild
	Result         *dynamo.Result
	Trajectory     *physics.Trajectory
	Classification analysis.Classification
	// ConstraintResidual is max |v_r² + V_eff - E0²| over the samples.
	ConstraintResidual float64
	CaptureRadius      float64
	EscapeRadius       float64
	Elapsed            time.Duration
}

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	logger    *slog.Logger
	observers []dynamo.Observer
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		logger:   slog.Default(),
	}
}

func (e *Experiment) WithLogger(logger *slog.Logger) *Experiment {
	e.logger = logger
	return e
}

// AddObserver attaches an observer that sees every accepted step.
func (e *Experiment) AddObserver(o dynamo.Observer) {
	e.observers = append(e.observers, o)
}

// Setup validates the configuration and builds the simulator along with
// the initial state and event radii.
func (e *Experiment) Setup() (*sim.Simulator, dynamo.State, *Outcome, error) {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	model := cfg.Model()
	o := cfg.Orbit
	x0, err := model.InitialState(o.Radius, o.RadialVelocity, o.Phi)
	if err != nil {
		return nil, nil, nil, err
	}

	integ, err := e.registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, nil, nil, err
	}

	capture := cfg.Events.CaptureRadius
	if capture == 0 {
		capture = model.HorizonRadius()
	}
	escape := cfg.Events.EscapeRadius
	if escape == 0 {
		escape = model.DefaultEscapeRadius(o.Radius)
	}
	if o.Radius <= capture || o.Radius >= escape {
		return nil, nil, nil, fmt.Errorf("experiment: r0=%g outside the event radii (%g, %g): %w",
			o.Radius, capture, escape, dynamo.ErrInvalidConfig)
	}

	s := sim.New(model, integ)
	s.AddEvent(model.CaptureEvent(capture))
	s.AddEvent(model.EscapeEvent(escape))
	for _, m := range e.registry.DefaultMetrics(model) {
		s.AddMetric(m)
	}
	for _, obs := range e.observers {
		s.AddObserver(obs)
	}

	return s, x0, &Outcome{
		Config:        cfg.Clone(),
		Model:         model,
		CaptureRadius: capture,
		EscapeRadius:  escape,
	}, nil
}

// Run integrates the orbit and classifies it. Physical termination is part
// of the outcome; errors mean invalid input or a solver failure, and in the
// latter case the partial outcome is returned alongside the error.
func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	s, x0, out, err := e.Setup()
	if err != nil {
		return nil, err
	}

	o := e.cfg.Orbit
	log := e.logger.With(
		"L", o.AngularMomentum,
		"vr0", o.RadialVelocity,
		"r0", o.Radius,
		"integrator", e.cfg.Integrator,
	)
	log.Debug("run starting", "duration", e.cfg.Solver.Duration, "escape_radius", out.EscapeRadius)

	start := time.Now()
	result, err := s.Run(ctx, x0, e.cfg.SimConfig())
	out.Elapsed = time.Since(start)
	out.Result = result
	if err != nil {
		log.Warn("run failed", "kind", string(dynamo.KindOf(err)), "err", err)
		return out, err
	}

	out.Trajectory = physics.NewTrajectory(result)
	out.ConstraintResidual = out.Trajectory.ConstraintResidual(out.Model)

	cl := analysis.NewClassifier(out.Model)
	cl.CircularTolerance = e.cfg.Classifier.CircularTolerance
	cl.ExtremumTolerance = e.cfg.Classifier.ExtremumTolerance
	out.Classification, err = cl.Classify(out.Trajectory)
	if err != nil {
		return out, err
	}

	log.Info("run finished",
		"termination", string(result.Termination),
		"label", string(out.Classification.Label),
		"steps", result.StepsTaken,
		"rejected", result.StepsRejected,
		"samples", out.Trajectory.Len(),
		"residual", out.ConstraintResidual,
		"elapsed", out.Elapsed,
	)
	return out, nil
}

// Compare runs the same orbit once per integrator, in order. A solver
// failure for one integrator is recorded in its error slot and does not stop
// the others. Cancellation does: the canceled entry and every one after it
// carry the cancellation error, so a nil error always means a non-nil outcome.
func Compare(ctx context.Context, cfg *config.Config, names []string) ([]*Outcome, []error) {
	outcomes := make([]*Outcome, len(names))
	errs := make([]error, len(names))
	for i, name := range names {
		c := cfg.Clone()
		c.Integrator = name
		outcomes[i], errs[i] = New(c).Run(ctx)
		if errs[i] != nil && dynamo.KindOf(errs[i]) == dynamo.KindCanceled {
			for j := i + 1; j < len(names); j++ {
				errs[j] = errs[i]
			}
			break
		}
	}
	return outcomes, errs
}
