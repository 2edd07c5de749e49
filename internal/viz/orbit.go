package viz

import (
	"math"

	"github.com/san-kum/geodesim/internal/physics"
)

// OrbitCanvas plots the trajectory in the orbital plane around a circle of
// radius horizon, scaled so the whole orbit fits.
func OrbitCanvas(tr *physics.Trajectory, horizon float64, width, height int) *Canvas {
	c := NewCanvas(width, height)
	extent := horizon
	if tr != nil {
		for _, r := range tr.R {
			extent = math.Max(extent, r)
		}
	}
	v := NewViewport(c, extent*1.05)
	v.DrawCircle(c, horizon)
	if tr != nil {
		v.DrawPolyline(c, tr.R, tr.Phi)
	}
	return c
}

// OrbitASCII renders OrbitCanvas as text.
func OrbitASCII(tr *physics.Trajectory, horizon float64, width, height int) string {
	return OrbitCanvas(tr, horizon, width, height).String()
}
