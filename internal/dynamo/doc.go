// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dτ = f(X, τ))
//   - [Integrator] and [AdaptiveIntegrator]: step methods
//   - [Event]: zero-crossing conditions that end a run early
//   - [Config] and [Result]: solver settings and sampled output
//
// # Example
//
//	dyn := physics.New(1, 4)
//	s := sim.New(dyn, integrators.NewRK45())
//	result, _ := s.Run(ctx, x0, dynamo.DefaultConfig())
//
// # Errors
//
// Physical outcomes such as falling through the horizon are reported through
// [Result.Termination], never as errors. Errors are classified with [KindOf]
// so solver failures stay distinct from invalid input.
package dynamo
