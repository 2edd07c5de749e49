package metrics

import (
	"math"

	"github.com/san-kum/geodesim/internal/dynamo"
)

// EnergyDrift measures how far E² = v_r² + V_eff strays from its value at
// the first observed sample. The exact flow conserves it, so the worst
// deviation bounds the integration error along the whole run.
type EnergyDrift struct {
	sys     dynamo.Hamiltonian
	started bool
	e0      float64
	worst   float64
	worstAt float64
}

func NewEnergyDrift(sys dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{sys: sys}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	e2 := e.sys.Energy(x)
	if !e.started {
		e.started = true
		e.e0 = e2
		e.worstAt = t
		return
	}
	if d := math.Abs(e2 - e.e0); d > e.worst {
		e.worst = d
		e.worstAt = t
	}
}

// Value is max |E²(τ) - E²(τ0)| over the observed samples.
func (e *EnergyDrift) Value() float64 { return e.worst }

// Initial is the E² seen at the first observation.
func (e *EnergyDrift) Initial() float64 { return e.e0 }

// WorstAt is the τ of the largest deviation.
func (e *EnergyDrift) WorstAt() float64 { return e.worstAt }

func (e *EnergyDrift) Reset() {
	*e = EnergyDrift{sys: e.sys}
}
