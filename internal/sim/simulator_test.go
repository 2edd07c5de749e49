package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/integrators"
	"github.com/san-kum/geodesim/internal/physics"
)

type testDynamics struct{}

func (t *testDynamics) Derive(x dynamo.State, time float64) dynamo.State {
	return dynamo.State{-x[0]}
}

func (t *testDynamics) StateDim() int { return 1 }

type testIntegrator struct{}

func (t *testIntegrator) Step(dyn dynamo.System, x dynamo.State, time float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, time)
	return dynamo.State{x[0] + dt*dx[0]}
}

// blowUp follows dx/dt = x², which diverges at t = 1/x0.
type blowUp struct{}

func (b *blowUp) Derive(x dynamo.State, time float64) dynamo.State {
	return dynamo.State{x[0] * x[0]}
}

func (b *blowUp) StateDim() int { return 1 }

func fixedConfig(dt, duration float64) dynamo.Config {
	return dynamo.Config{Dt: dt, Duration: duration, MaxSteps: 1_000_000}
}

func TestSimulatorRun(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{})

	result, err := sim.Run(context.Background(), dynamo.State{1.0}, fixedConfig(0.1, 1.0))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if result.Termination != dynamo.TerminationCompleted {
		t.Errorf("expected completed, got %s", result.Termination)
	}

	final, tau := result.Final()
	expected := math.Exp(-1.0)
	if math.Abs(final[0]-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, final[0])
	}
	if tau != 1.0 {
		t.Errorf("expected to stop exactly at duration, got %v", tau)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{})

	tests := []struct {
		name string
		cfg  dynamo.Config
	}{
		{"zero dt", dynamo.Config{Dt: 0, Duration: 1.0, MaxSteps: 10}},
		{"negative dt", dynamo.Config{Dt: -0.1, Duration: 1.0, MaxSteps: 10}},
		{"zero duration", dynamo.Config{Dt: 0.1, Duration: 0, MaxSteps: 10}},
		{"negative duration", dynamo.Config{Dt: 0.1, Duration: -1.0, MaxSteps: 10}},
		{"negative sampling", dynamo.Config{Dt: 0.1, Duration: 1.0, SampleDt: -1, MaxSteps: 10}},
		{"no step budget", dynamo.Config{Dt: 0.1, Duration: 1.0}},
		{"adaptive without tolerance", dynamo.Config{Dt: 0.1, Duration: 1.0, MaxSteps: 10, Adaptive: true, MinDt: 1e-9, MaxDt: 1}},
		{"adaptive with inverted bounds", dynamo.Config{Dt: 0.1, Duration: 1.0, MaxSteps: 10, Adaptive: true, Tolerance: dynamo.Tolerance{Rel: 1e-6}, MinDt: 1, MaxDt: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), dynamo.State{1.0}, tt.cfg)
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorDimensionMismatch(t *testing.T) {
	sim := New(physics.New(1, 4), integrators.NewRK45())

	_, err := sim.Run(context.Background(), dynamo.State{10, 0}, dynamo.DefaultConfig())
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x dynamo.State, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), dynamo.State{1.0}, fixedConfig(0.1, 1.0))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	// initial state plus one observation per accepted step
	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}

func plungeSim(model physics.Schwarzschild) *Simulator {
	s := New(model, integrators.NewRK45())
	s.AddEvent(model.CaptureEvent(0))
	s.AddEvent(model.EscapeEvent(100))
	return s
}

func TestCaptureStopsAtHorizon(t *testing.T) {
	model := physics.New(1, 1)
	s := plungeSim(model)

	result, err := s.Run(context.Background(), dynamo.State{5, -0.5, 0}, dynamo.DefaultConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Termination != physics.TerminationCapture {
		t.Fatalf("expected capture, got %s", result.Termination)
	}

	final, tau := result.Final()
	if math.Abs(final[physics.IdxR]-model.HorizonRadius()) > 1e-8 {
		t.Errorf("terminal sample at r=%.12f, want horizon", final[physics.IdxR])
	}
	if tau >= 1000 {
		t.Errorf("capture should end the run early, ended at τ=%v", tau)
	}

	for i := 1; i < len(result.States); i++ {
		r := result.States[i][physics.IdxR]
		if r < model.HorizonRadius()-1e-8 {
			t.Fatalf("sample %d at r=%v is inside the horizon", i, r)
		}
		if r > result.States[i-1][physics.IdxR] {
			t.Fatalf("radius increased at sample %d", i)
		}
	}
}

func TestEscapeStopsAtThreshold(t *testing.T) {
	model := physics.New(1, 10)
	s := plungeSim(model)

	result, err := s.Run(context.Background(), dynamo.State{20, 5, 0}, dynamo.DefaultConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Termination != physics.TerminationEscape {
		t.Fatalf("expected escape, got %s", result.Termination)
	}
	final, _ := result.Final()
	if math.Abs(final[physics.IdxR]-100) > 1e-8 {
		t.Errorf("terminal sample at r=%v, want 100", final[physics.IdxR])
	}
}

func TestUniformSampling(t *testing.T) {
	model := physics.New(1, 4)
	s := New(model, integrators.NewRK45())

	cfg := dynamo.DefaultConfig()
	cfg.Duration = 50
	cfg.SampleDt = 0.5

	result, err := s.Run(context.Background(), dynamo.State{12, 0, 0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Times) != 101 {
		t.Fatalf("expected 101 samples, got %d", len(result.Times))
	}
	for i, tau := range result.Times {
		if math.Abs(tau-float64(i)*0.5) > 1e-9 {
			t.Fatalf("sample %d at τ=%v, want %v", i, tau, float64(i)*0.5)
		}
	}
}

func TestEveryStepSampling(t *testing.T) {
	model := physics.New(1, 4)
	s := New(model, integrators.NewRK45())

	cfg := dynamo.DefaultConfig()
	cfg.Duration = 10
	cfg.SampleDt = 0

	result, err := s.Run(context.Background(), dynamo.State{12, 0, 0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != result.StepsTaken+1 {
		t.Errorf("expected one sample per accepted step plus the start, got %d for %d steps", len(result.States), result.StepsTaken)
	}
}

func TestConstraintHoldsAtEverySample(t *testing.T) {
	model := physics.New(1, 4)
	s := New(model, integrators.NewRK45())

	cfg := dynamo.DefaultConfig()
	cfg.Duration = 2000

	result, err := s.Run(context.Background(), dynamo.State{13, 0, 0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	tr := physics.NewTrajectory(result)
	if res := tr.ConstraintResidual(model); res > 1e-8 {
		t.Errorf("E² = v_r² + V_eff violated by %e", res)
	}
}

func TestStepUnderflowIsNumericalFailure(t *testing.T) {
	s := New(&blowUp{}, integrators.NewRK45())

	cfg := dynamo.DefaultConfig()
	cfg.Duration = 2
	cfg.MinDt = 1e-6
	cfg.MaxSteps = 1_000_000

	_, err := s.Run(context.Background(), dynamo.State{1}, cfg)
	if err == nil {
		t.Fatal("expected a numerical failure")
	}
	if !dynamo.IsNumerical(err) {
		t.Errorf("expected numerical failure, got %v", err)
	}

	var se *dynamo.SimulationError
	if !errors.As(err, &se) {
		t.Fatalf("expected SimulationError, got %T", err)
	}
	if se.Time <= 0.9 || se.Time > 1 {
		t.Errorf("failure should happen just before the singularity, got t=%v", se.Time)
	}
}

func TestStepBudget(t *testing.T) {
	s := New(physics.New(1, 4), integrators.NewRK45())

	cfg := dynamo.DefaultConfig()
	cfg.MaxSteps = 10

	result, err := s.Run(context.Background(), dynamo.State{12, 0, 0}, cfg)
	if !errors.Is(err, dynamo.ErrMaxSteps) {
		t.Fatalf("expected ErrMaxSteps, got %v", err)
	}
	if result == nil || len(result.States) == 0 {
		t.Error("partial result should be returned with the error")
	}
}

func TestContextCancel(t *testing.T) {
	s := New(physics.New(1, 4), integrators.NewRK45())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, dynamo.State{12, 0, 0}, dynamo.DefaultConfig())
	if dynamo.KindOf(err) != dynamo.KindCanceled {
		t.Errorf("expected canceled, got %v", err)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() *dynamo.Result {
		s := plungeSim(physics.New(1, 3.9))
		cfg := dynamo.DefaultConfig()
		cfg.Duration = 300
		result, err := s.Run(context.Background(), dynamo.State{11, 0.01, 0}, cfg)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return result
	}

	a, b := run(), run()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated runs differ (-first +second):\n%s", diff)
	}
}
