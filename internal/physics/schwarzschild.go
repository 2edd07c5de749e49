package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/geodesim/internal/dynamo"
)

// State vector layout: (r, dr/dτ, φ).
const (
	IdxR = iota
	IdxVR
	IdxPhi
)

var (
	ErrInvalidMass   = fmt.Errorf("physics: mass must be positive and finite: %w", dynamo.ErrParameterBounds)
	ErrInvalidRadius = fmt.Errorf("physics: radius must be positive and finite: %w", dynamo.ErrParameterBounds)
	ErrInsideHorizon = fmt.Errorf("physics: initial radius at or inside the horizon: %w", dynamo.ErrParameterBounds)
	ErrInvalidState  = fmt.Errorf("physics: initial velocity or angle not finite: %w", dynamo.ErrParameterBounds)
)

// Schwarzschild holds the parameters of a timelike geodesic around a
// non-rotating black hole: mass M and specific angular momentum L. Values
// are immutable; every method has a value receiver.
type Schwarzschild struct {
	M float64
	L float64
}

func New(mass, angularMomentum float64) Schwarzschild {
	return Schwarzschild{M: mass, L: angularMomentum}
}

func (s Schwarzschild) Validate() error {
	if !(s.M > 0) || math.IsInf(s.M, 0) {
		return ErrInvalidMass
	}
	if math.IsNaN(s.L) || math.IsInf(s.L, 0) {
		return fmt.Errorf("physics: angular momentum not finite: %w", dynamo.ErrParameterBounds)
	}
	return nil
}

func (s Schwarzschild) StateDim() int {
	return 3
}

func (s Schwarzschild) HorizonRadius() float64 {
	return 2 * s.M
}

// ISCO is the innermost stable circular orbit, 6M.
func (s Schwarzschild) ISCO() float64 {
	return 6 * s.M
}

// Potential is V_eff(r) = (1 - 2M/r)(1 + L²/r²).
func (s Schwarzschild) Potential(r float64) float64 {
	return (1 - 2*s.M/r) * (1 + s.L*s.L/(r*r))
}

// PotentialDerivative is dV_eff/dr = 2M/r² - 2L²/r³ + 6ML²/r⁴.
func (s Schwarzschild) PotentialDerivative(r float64) float64 {
	r2 := r * r
	l2 := s.L * s.L
	return 2*s.M/r2 - 2*l2/(r2*r) + 6*s.M*l2/(r2*r2)
}

// RadialAcceleration is d²r/dτ² = -½ dV_eff/dr.
func (s Schwarzschild) RadialAcceleration(r float64) float64 {
	return -0.5 * s.PotentialDerivative(r)
}

// AngularVelocity is dφ/dτ = L/r².
func (s Schwarzschild) AngularVelocity(r float64) float64 {
	return s.L / (r * r)
}

// Derive assembles (dr/dτ, dv_r/dτ, dφ/dτ) for the integrator. Undefined at
// r = 0; the capture event stops runs long before that.
func (s Schwarzschild) Derive(x dynamo.State, t float64) dynamo.State {
	r := x[IdxR]
	return dynamo.State{
		x[IdxVR],
		s.RadialAcceleration(r),
		s.AngularVelocity(r),
	}
}

// Energy returns E² = v_r² + V_eff(r), constant along a geodesic.
func (s Schwarzschild) Energy(x dynamo.State) float64 {
	v := x[IdxVR]
	return v*v + s.Potential(x[IdxR])
}

// CircularOrbits returns the radii where dV_eff/dr = 0: the stable orbit at
// the potential minimum and the unstable one at the maximum. ok is false
// when L² < 12M², in which case no circular orbit exists.
func (s Schwarzschild) CircularOrbits() (stable, unstable float64, ok bool) {
	l2 := s.L * s.L
	disc := l2*l2 - 12*s.M*s.M*l2
	// L² = 12M² rounds either way; treat it as the marginal (ISCO) orbit.
	if disc < 0 && disc > -1e-12*l2*l2 {
		disc = 0
	}
	if disc < 0 || l2 == 0 {
		return 0, 0, false
	}
	root := math.Sqrt(disc)
	return (l2 + root) / (2 * s.M), (l2 - root) / (2 * s.M), true
}

// CircularAngularMomentum is the L for which r is a circular orbit radius,
// L² = Mr²/(r - 3M). Only meaningful for r > 3M.
func CircularAngularMomentum(mass, r float64) (float64, error) {
	if !(r > 3*mass) {
		return 0, fmt.Errorf("physics: no circular orbit at r=%g (needs r > 3M): %w", r, dynamo.ErrParameterBounds)
	}
	return math.Sqrt(mass * r * r / (r - 3*mass)), nil
}

// InitialState validates (r0, v_r0, φ0) against the horizon and builds the
// state vector.
func (s Schwarzschild) InitialState(r0, vr0, phi0 float64) (dynamo.State, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !(r0 > 0) || math.IsInf(r0, 0) {
		return nil, fmt.Errorf("r0=%g: %w", r0, ErrInvalidRadius)
	}
	if r0 <= s.HorizonRadius() {
		return nil, fmt.Errorf("r0=%g, horizon=%g: %w", r0, s.HorizonRadius(), ErrInsideHorizon)
	}
	x := dynamo.State{r0, vr0, phi0}
	if !x.IsValid() {
		return nil, ErrInvalidState
	}
	return x, nil
}

// IsDomainError reports whether err came from rejected model input.
func IsDomainError(err error) bool {
	return errors.Is(err, dynamo.ErrParameterBounds)
}
