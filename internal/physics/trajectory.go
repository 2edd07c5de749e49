package physics

import (
	"math"

	"github.com/san-kum/geodesim/internal/dynamo"
)

// Trajectory is the column view of a run: one entry per sample of the
// affine parameter τ. It is built once and not modified afterwards.
type Trajectory struct {
	Tau         []float64
	R           []float64
	VR          []float64
	Phi         []float64
	Termination dynamo.Termination
}

// NewTrajectory splits the sampled states of a result into columns.
func NewTrajectory(result *dynamo.Result) *Trajectory {
	n := len(result.States)
	tr := &Trajectory{
		Tau:         make([]float64, n),
		R:           make([]float64, n),
		VR:          make([]float64, n),
		Phi:         make([]float64, n),
		Termination: result.Termination,
	}
	copy(tr.Tau, result.Times)
	for i, x := range result.States {
		tr.R[i] = x[IdxR]
		tr.VR[i] = x[IdxVR]
		tr.Phi[i] = x[IdxPhi]
	}
	return tr
}

func (tr *Trajectory) Len() int {
	return len(tr.Tau)
}

func (tr *Trajectory) State(i int) dynamo.State {
	return dynamo.State{tr.R[i], tr.VR[i], tr.Phi[i]}
}

// Cartesian returns x = r cos φ, y = r sin φ for every sample.
func (tr *Trajectory) Cartesian() (xs, ys []float64) {
	xs = make([]float64, len(tr.R))
	ys = make([]float64, len(tr.R))
	for i := range tr.R {
		s, c := math.Sincos(tr.Phi[i])
		xs[i] = tr.R[i] * c
		ys[i] = tr.R[i] * s
	}
	return xs, ys
}

// ConstraintResidual returns the largest |v_r² + V_eff(r) - E0²| over the
// samples, where E0² is taken from the first sample.
func (tr *Trajectory) ConstraintResidual(model Schwarzschild) float64 {
	if tr.Len() == 0 {
		return 0
	}
	e0 := model.Energy(tr.State(0))
	worst := 0.0
	for i := 1; i < tr.Len(); i++ {
		worst = math.Max(worst, math.Abs(model.Energy(tr.State(i))-e0))
	}
	return worst
}
