package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/geodesim/internal/dynamo"
)

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	events     []dynamo.Event
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		events:     make([]dynamo.Event, 0),
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddEvent(e dynamo.Event)       { s.events = append(s.events, e) }
func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 over [0, cfg.Duration]. It stops early, without
// error, when an event fires; Result.Termination names the event. Solver
// failures return a *dynamo.SimulationError together with the partial result.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("x0 has %d components, system wants %d: %w", len(x0), s.dyn.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if !x0.IsValid() {
		return nil, &dynamo.SimulationError{State: x0.Clone(), Wrapped: dynamo.ErrInvalidState}
	}

	adaptive, _ := s.integrator.(dynamo.AdaptiveIntegrator)
	if !cfg.Adaptive {
		adaptive = nil
	}

	capacity := 1024
	if cfg.SampleDt > 0 {
		capacity = int(math.Min(cfg.Duration/cfg.SampleDt, 1<<20)) + 2
	}
	rec := newRecorder(cfg.SampleDt, capacity)

	result := &dynamo.Result{
		Termination: dynamo.TerminationCompleted,
		Metrics:     make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt
	if adaptive != nil {
		dt = math.Min(dt, cfg.MaxDt)
	}

	rec.start(t, x)
	s.observe(x, t)
	initialEnergy := s.computeEnergy(x)

	fail := func(err error) (*dynamo.Result, error) {
		s.finalize(result, rec, x, initialEnergy)
		return result, &dynamo.SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: err}
	}

	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			s.finalize(result, rec, x, initialEnergy)
			return result, fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if result.StepsTaken+result.StepsRejected >= cfg.MaxSteps {
			return fail(dynamo.ErrMaxSteps)
		}

		h := math.Min(dt, cfg.Duration-t)
		// Absorb a sliver left by rounding instead of taking a tiny last step.
		if cfg.Duration-t-h < 1e-12*cfg.Duration {
			h = cfg.Duration - t
		}

		var newX dynamo.State
		if adaptive != nil {
			var next float64
			var ok bool
			newX, next, ok = adaptive.StepAdaptive(s.dyn, x, t, h, cfg.Tolerance)
			if !ok {
				result.StepsRejected++
				if next < cfg.MinDt {
					return fail(dynamo.ErrStepTooSmall)
				}
				dt = next
				continue
			}
			dt = math.Min(math.Max(next, cfg.MinDt), cfg.MaxDt)
		} else {
			newX = s.integrator.Step(s.dyn, x, t, h)
		}

		if cfg.ValidateState && !newX.IsValid() {
			return fail(dynamo.ErrInvalidState)
		}

		tNew := t + h
		if tNew >= cfg.Duration-1e-12*cfg.Duration {
			tNew = cfg.Duration
		}
		seg := &segment{
			t0: t, t1: tNew,
			x0: x, x1: newX,
			f0: s.dyn.Derive(x, t), f1: s.dyn.Derive(newX, tNew),
		}

		if ev, tEvent, xEvent, fired := s.firstEvent(seg); fired {
			rec.cover(seg, tEvent)
			rec.finish(tEvent, xEvent)
			x, t = xEvent, tEvent
			result.StepsTaken++
			result.Termination = ev.Name
			s.observe(x, t)
			break
		}

		rec.cover(seg, tNew)
		x, t = newX, tNew
		result.StepsTaken++
		s.observe(x, t)
	}

	rec.finish(t, x)
	s.finalize(result, rec, x, initialEnergy)
	return result, nil
}

// firstEvent returns the earliest event crossing inside the segment.
func (s *Simulator) firstEvent(seg *segment) (dynamo.Event, float64, dynamo.State, bool) {
	var (
		best   dynamo.Event
		bestT  = math.Inf(1)
		bestX  dynamo.State
		exists bool
	)
	for _, ev := range s.events {
		g0 := ev.Value(seg.x0, seg.t0)
		g1 := ev.Value(seg.x1, seg.t1)
		if !ev.Crossed(g0, g1) {
			continue
		}
		te, xe := seg.locate(ev)
		if te < bestT {
			best, bestT, bestX, exists = ev, te, xe, true
		}
	}
	return best, bestT, bestX, exists
}

func (s *Simulator) observe(x dynamo.State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *Simulator) finalize(result *dynamo.Result, rec *recorder, x dynamo.State, initialEnergy float64) {
	result.States = rec.states
	result.Times = rec.times

	finalEnergy := s.computeEnergy(x)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg dynamo.Config) error {
	switch {
	case !(cfg.Dt > 0):
		return fmt.Errorf("dt must be positive, got %g: %w", cfg.Dt, dynamo.ErrInvalidConfig)
	case !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 0):
		return fmt.Errorf("duration must be positive and finite, got %g: %w", cfg.Duration, dynamo.ErrInvalidConfig)
	case cfg.SampleDt < 0:
		return fmt.Errorf("sample interval must not be negative, got %g: %w", cfg.SampleDt, dynamo.ErrInvalidConfig)
	case cfg.MaxSteps <= 0:
		return fmt.Errorf("max steps must be positive, got %d: %w", cfg.MaxSteps, dynamo.ErrInvalidConfig)
	}
	if cfg.Adaptive {
		if !(cfg.Tolerance.Rel > 0) || cfg.Tolerance.Abs < 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping: %w", dynamo.ErrInvalidConfig)
		}
		if !(cfg.MinDt > 0) || !(cfg.MaxDt > cfg.MinDt) {
			return fmt.Errorf("need 0 < min dt < max dt, got %g and %g: %w", cfg.MinDt, cfg.MaxDt, dynamo.ErrInvalidConfig)
		}
	}
	return nil
}

func (s *Simulator) computeEnergy(x dynamo.State) float64 {
	if ec, ok := s.dyn.(dynamo.Hamiltonian); ok {
		return ec.Energy(x)
	}
	return 0
}
