// Package integrators implements explicit Runge-Kutta steppers for
// [dynamo.System]: the adaptive Dormand-Prince pair [RK45], and the fixed-step
// [RK4] and [Euler] used as baselines.
package integrators
