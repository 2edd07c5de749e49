// Package physics models timelike geodesics in Schwarzschild spacetime.
//
// [Schwarzschild] implements [dynamo.System] over the state (r, dr/dτ, φ):
//
//	V_eff(r)   = (1 - 2M/r)(1 + L²/r²)
//	d²r/dτ²    = -½ dV_eff/dr
//	dφ/dτ      = L / r²
//
// It also implements [dynamo.Hamiltonian]; Energy returns E² = v_r² + V_eff,
// which exact solutions conserve.
//
// Crossing the horizon is a physical outcome, not a numerical one. Use
// [Schwarzschild.CaptureEvent] and [Schwarzschild.EscapeEvent] to stop a run
// at the inner and outer thresholds.
package physics
