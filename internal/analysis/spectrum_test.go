package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/physics"
)

func TestRadialSpectrumPeriod(t *testing.T) {
	tr := synth(200, 0.1, dynamo.TerminationCompleted, ellipse)
	// an off-grid terminal sample must not disturb the transform
	tr.Tau = append(tr.Tau, 200.03)
	tr.R = append(tr.R, 10)
	tr.VR = append(tr.VR, 0)
	tr.Phi = append(tr.Phi, 0)

	s, err := RadialSpectrum(tr)
	if err != nil {
		t.Fatalf("RadialSpectrum: %v", err)
	}
	if got := s.DominantPeriod(); math.Abs(got-2*math.Pi)/(2*math.Pi) > 0.03 {
		t.Errorf("dominant period = %v, want about %v", got, 2*math.Pi)
	}
	if s.Amplitudes[0] > 1e-9 {
		t.Errorf("mean not removed: DC amplitude %v", s.Amplitudes[0])
	}

	peak := 0.0
	for _, a := range s.Amplitudes {
		peak = math.Max(peak, a)
	}
	if peak < 1.5 || peak > 2.1 {
		t.Errorf("peak amplitude %v, want close to 2", peak)
	}
}

func TestRadialSpectrumFlat(t *testing.T) {
	tr := synth(50, 0.5, dynamo.TerminationCompleted, func(tau float64) (float64, float64, float64) {
		return 10, 0, tau / 30
	})
	s, err := RadialSpectrum(tr)
	if err != nil {
		t.Fatalf("RadialSpectrum: %v", err)
	}
	if p := s.DominantPeriod(); p != 0 {
		t.Errorf("flat orbit has period %v", p)
	}
}

func TestRadialSpectrumErrors(t *testing.T) {
	if _, err := RadialSpectrum(nil); !errors.Is(err, ErrShortTrajectory) {
		t.Errorf("nil: %v", err)
	}

	short := synth(1, 0.1, dynamo.TerminationCompleted, ellipse)
	if _, err := RadialSpectrum(short); !errors.Is(err, ErrShortTrajectory) {
		t.Errorf("short: %v", err)
	}

	uneven := &physics.Trajectory{}
	tau := 0.0
	for i := 0; i < 40; i++ {
		uneven.Tau = append(uneven.Tau, tau)
		uneven.R = append(uneven.R, 10)
		uneven.VR = append(uneven.VR, 0)
		uneven.Phi = append(uneven.Phi, 0)
		tau += 0.1 * float64(1+i%3)
	}
	if _, err := RadialSpectrum(uneven); !errors.Is(err, ErrNonUniform) {
		t.Errorf("uneven: %v", err)
	}
}
