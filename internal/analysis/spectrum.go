package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/geodesim/internal/physics"
)

const minSpectrumSamples = 16

var (
	ErrNonUniform      = errors.New("analysis: samples are not evenly spaced in τ")
	ErrShortTrajectory = errors.New("analysis: too few samples for a spectrum")
)

// Spectrum is the one-sided amplitude spectrum of r(τ) about its mean.
// Frequencies are in cycles per unit τ.
type Spectrum struct {
	Frequencies []float64 `json:"frequencies"`
	Amplitudes  []float64 `json:"amplitudes"`
}

// RadialSpectrum transforms the evenly spaced prefix of r(τ). The final
// sample of a run may fall off the grid and is dropped in that case.
func RadialSpectrum(tr *physics.Trajectory) (*Spectrum, error) {
	if tr == nil || tr.Len() < minSpectrumSamples {
		return nil, ErrShortTrajectory
	}
	n := uniformPrefix(tr.Tau)
	if n < minSpectrumSamples {
		return nil, ErrNonUniform
	}
	dt := tr.Tau[1] - tr.Tau[0]

	r := make([]float64, n)
	copy(r, tr.R[:n])
	floats.AddConst(-stat.Mean(r, nil), r)

	coeffs := fft.FFTReal(r)
	half := n/2 + 1
	s := &Spectrum{
		Frequencies: make([]float64, half),
		Amplitudes:  make([]float64, half),
	}
	for k := 0; k < half; k++ {
		s.Frequencies[k] = float64(k) / (float64(n) * dt)
		s.Amplitudes[k] = 2 * cmplx.Abs(coeffs[k]) / float64(n)
	}
	return s, nil
}

// DominantPeriod is 1/f at the strongest non-zero frequency, refined by a
// parabola through the peak and its neighbours. Zero when the spectrum is
// flat.
func (s *Spectrum) DominantPeriod() float64 {
	if len(s.Amplitudes) < 3 {
		return 0
	}
	k := floats.MaxIdx(s.Amplitudes[1:]) + 1
	if s.Amplitudes[k] == 0 {
		return 0
	}

	shift := 0.0
	if k+1 < len(s.Amplitudes) {
		a, b, c := s.Amplitudes[k-1], s.Amplitudes[k], s.Amplitudes[k+1]
		if d := a - 2*b + c; d != 0 {
			shift = 0.5 * (a - c) / d
		}
	}
	df := s.Frequencies[1]
	f := s.Frequencies[k] + shift*df
	if f <= 0 {
		return 0
	}
	return 1 / f
}

func uniformPrefix(tau []float64) int {
	if len(tau) < 2 {
		return len(tau)
	}
	dt := tau[1] - tau[0]
	if !(dt > 0) {
		return 0
	}
	tol := 1e-9 * math.Max(1, math.Abs(tau[len(tau)-1]))
	for i := 2; i < len(tau); i++ {
		if math.Abs(tau[i]-tau[0]-float64(i)*dt) > tol {
			return i
		}
	}
	return len(tau)
}
