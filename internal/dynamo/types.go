package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a first-order ODE dX/dτ = f(X, τ). Derive must be free of side
// effects: integrators call it at arbitrary states and times, in any order.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Hamiltonian exposes a quantity conserved along exact solutions.
type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

// Tolerance bounds the local error of an adaptive step component-wise by
// Abs + Rel*|x|.
type Tolerance struct {
	Abs float64
	Rel float64
}

// AdaptiveIntegrator attempts a step of size dt and reports whether the
// embedded error estimate was accepted, along with the suggested next step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt float64, tol Tolerance) (State, float64, bool)
}

// Event terminates a run when Value changes sign. Direction restricts the
// crossing: -1 for falling, +1 for rising, 0 for either.
type Event struct {
	Name      Termination
	Direction int
	Value     func(x State, t float64) float64
}

// Crossed reports whether the event fires between two successive values.
func (e Event) Crossed(g0, g1 float64) bool {
	switch {
	case e.Direction < 0:
		return g0 > 0 && g1 <= 0
	case e.Direction > 0:
		return g0 < 0 && g1 >= 0
	default:
		return (g0 > 0 && g1 <= 0) || (g0 < 0 && g1 >= 0)
	}
}

// Termination names why a run stopped. Runs that reach Config.Duration end
// with TerminationCompleted; otherwise it is the Name of the event that fired.
type Termination string

const TerminationCompleted Termination = "completed"

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	SampleDt      float64
	Tolerance     Tolerance
	MaxDt         float64
	MinDt         float64
	MaxSteps      int
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      1000.0,
		SampleDt:      0.1,
		Tolerance:     Tolerance{Abs: 1e-12, Rel: 1e-10},
		MaxDt:         0.1,
		MinDt:         1e-12,
		MaxSteps:      5_000_000,
		Adaptive:      true,
		ValidateState: true,
	}
}

type Result struct {
	States        []State
	Times         []float64
	Termination   Termination
	Metrics       map[string]float64
	EnergyDrift   float64
	StepsTaken    int
	StepsRejected int
}

// Final returns the last recorded state and its time.
func (r *Result) Final() (State, float64) {
	if len(r.States) == 0 {
		return nil, 0
	}
	return r.States[len(r.States)-1], r.Times[len(r.Times)-1]
}
