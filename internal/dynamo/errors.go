package dynamo

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidConfig indicates unusable solver settings.
	ErrInvalidConfig = errors.New("dynamo: invalid solver configuration")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrMaxSteps indicates the step budget ran out before the end of the span.
	ErrMaxSteps = errors.New("dynamo: step budget exhausted before reaching duration")

	// ErrDimensionMismatch indicates mismatched state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// ErrorKind is a coarse classification of failures.
type ErrorKind string

const (
	KindUnknown   ErrorKind = "unknown"
	KindDomain    ErrorKind = "domain"
	KindNumerical ErrorKind = "numerical"
	KindConfig    ErrorKind = "config"
	KindCanceled  ErrorKind = "canceled"
)

// KindOf maps an error to its kind. Physical termination is never an error,
// so nothing here corresponds to a capture or an escape.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrStepTooSmall), errors.Is(err, ErrMaxSteps), errors.Is(err, ErrInvalidState):
		return KindNumerical
	case errors.Is(err, ErrParameterBounds):
		return KindDomain
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrDimensionMismatch):
		return KindConfig
	case errors.Is(err, ErrContextCanceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// IsNumerical reports whether err is a solver failure.
func IsNumerical(err error) bool {
	return KindOf(err) == KindNumerical
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("%v (step %d, t=%.6g, state=%v)", e.Wrapped, e.Step, e.Time, []float64(e.State))
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
