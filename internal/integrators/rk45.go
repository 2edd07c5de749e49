package integrators

import (
	"math"

	"github.com/san-kum/geodesim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Dormand-Prince 5(4) tableau. Row s of dpA builds the input of stage s
// from the slopes before it. dpB gives the fifth-order state, and the
// seventh slope is taken there. dpErr is the fifth- minus fourth-order weights.
var (
	dpNodes = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA     = [6][5]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
	}
	dpB   = [6]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84}
	dpErr = [7]float64{
		35.0/384 - 5179.0/57600,
		0,
		500.0/1113 - 7571.0/16695,
		125.0/192 - 393.0/640,
		-2187.0/6784 + 92097.0/339200,
		11.0/84 - 187.0/2100,
		-1.0 / 40,
	}
)

// RK45 is the Dormand-Prince 5(4) embedded pair. The fifth-order solution
// is propagated; the difference to the fourth-order one drives step control.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	k       [7]dynamo.State
	scratch dynamo.State
	errVec  dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	xNew, _ := r.attempt(dyn, x, t, dt)
	return xNew
}

// StepAdaptive takes one trial step. On rejection the returned state must be
// discarded and the step retried with the returned (smaller) size.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, dt float64, tol dynamo.Tolerance) (dynamo.State, float64, bool) {
	xNew, errEst := r.attempt(dyn, x, t, dt)

	n := len(x)
	for i := 0; i < n; i++ {
		scale := tol.Abs + tol.Rel*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		errEst[i] /= scale
	}
	errNorm := floats.Norm(errEst, 2) / math.Sqrt(float64(n))

	if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
		return xNew, dt * r.minScale, false
	}

	if errNorm > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errNorm, -0.25))
		return xNew, dt * scale, false
	}

	if errNorm == 0 {
		return xNew, dt * r.maxScale, true
	}
	scale := math.Min(r.maxScale, r.safety*math.Pow(errNorm, -0.2))
	return xNew, dt * scale, true
}

// attempt returns the fifth-order state and the raw local error estimate.
// The error slice is scratch owned by r.
func (r *RK45) attempt(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State) {
	n := len(x)
	if len(r.errVec) != n {
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
		r.scratch = make(dynamo.State, n)
		r.errVec = make(dynamo.State, n)
	}

	copy(r.k[0], dyn.Derive(x, t))
	for s := 1; s < len(dpA); s++ {
		copy(r.scratch, x)
		for j, a := range dpA[s][:s] {
			floats.AddScaled(r.scratch, a*dt, r.k[j])
		}
		copy(r.k[s], dyn.Derive(r.scratch, t+dpNodes[s]*dt))
	}

	xNew := x.Clone()
	for j, b := range dpB {
		floats.AddScaled(xNew, b*dt, r.k[j])
	}
	copy(r.k[6], dyn.Derive(xNew, t+dpNodes[6]*dt))

	for i := range r.errVec {
		r.errVec[i] = 0
	}
	for j, e := range dpErr {
		floats.AddScaled(r.errVec, e*dt, r.k[j])
	}
	return xNew, r.errVec
}
