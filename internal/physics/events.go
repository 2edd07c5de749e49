package physics

import (
	"math"

	"github.com/san-kum/geodesim/internal/dynamo"
)

const (
	TerminationCapture dynamo.Termination = "capture"
	TerminationEscape  dynamo.Termination = "escape"
)

// MinEscapeRadius is the floor of the automatic escape threshold, in units of M.
const MinEscapeRadius = 100.0

// CaptureEvent fires when r falls through the given radius. A radius <= 0
// means the horizon.
func (s Schwarzschild) CaptureEvent(radius float64) dynamo.Event {
	if radius <= 0 {
		radius = s.HorizonRadius()
	}
	return dynamo.Event{
		Name:      TerminationCapture,
		Direction: -1,
		Value: func(x dynamo.State, t float64) float64 {
			return x[IdxR] - radius
		},
	}
}

// EscapeEvent fires when r rises through the given radius.
func (s Schwarzschild) EscapeEvent(radius float64) dynamo.Event {
	return dynamo.Event{
		Name:      TerminationEscape,
		Direction: 1,
		Value: func(x dynamo.State, t float64) float64 {
			return x[IdxR] - radius
		},
	}
}

// DefaultEscapeRadius is max(100M, 2·r0).
func (s Schwarzschild) DefaultEscapeRadius(r0 float64) float64 {
	return math.Max(MinEscapeRadius*s.M, 2*r0)
}
