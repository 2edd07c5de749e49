package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/geodesim/internal/dynamo"
)

// Euler is first order and only useful as a baseline in comparisons.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	return floats.AddScaledTo(make(dynamo.State, len(x)), x, dt, dyn.Derive(x, t))
}
