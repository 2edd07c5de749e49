// Package sim drives an integrator over a span of the affine parameter.
//
// [Simulator.Run] handles adaptive step acceptance, step-size underflow,
// the step budget, terminal events located by bisection on a cubic Hermite
// interpolant, and resampling onto a uniform output grid.
package sim
