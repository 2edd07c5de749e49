package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/geodesim/internal/dynamo"
)

// rk4Nodes are the classical tableau: stage i evaluates at t + c·dt from
// x + c·dt·k(i-1); the weights combine the four slopes.
var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6}
)

// RK4 is the classical fixed-step fourth-order method. It carries no error
// estimate, so the simulator drives it with the configured dt.
type RK4 struct {
	k       [4]dynamo.State
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	if len(r.scratch) != n {
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
		r.scratch = make(dynamo.State, n)
	}

	copy(r.k[0], dyn.Derive(x, t))
	for i := 1; i < len(r.k); i++ {
		floats.AddScaledTo(r.scratch, x, rk4Nodes[i]*dt, r.k[i-1])
		copy(r.k[i], dyn.Derive(r.scratch, t+rk4Nodes[i]*dt))
	}

	result := x.Clone()
	for i, k := range r.k {
		floats.AddScaled(result, rk4Weights[i]*dt, k)
	}
	return result
}
