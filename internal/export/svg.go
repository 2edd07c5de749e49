package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/physics"
)

var labelColors = map[analysis.Label]string{
	analysis.LabelPlunging:      "#ff5555",
	analysis.LabelScattering:    "#ffaa00",
	analysis.LabelCircular:      "#00ccff",
	analysis.LabelPrecessing:    "#00ff88",
	analysis.LabelIndeterminate: "#aaaaaa",
}

// LabelColor is the stroke used for orbits of the given family.
func LabelColor(l analysis.Label) string {
	if c, ok := labelColors[l]; ok {
		return c
	}
	return "#ffffff"
}

// frame maps orbit coordinates onto a square viewport with the hole at the
// centre and equal scale on both axes.
type frame struct {
	size   float64
	extent float64
}

func newFrame(xs, ys []float64, horizon float64, size int) frame {
	extent := horizon
	for i := range xs {
		extent = math.Max(extent, math.Max(math.Abs(xs[i]), math.Abs(ys[i])))
	}
	return frame{size: float64(size), extent: extent * 1.1}
}

func (f frame) px(x, y float64) (float64, float64) {
	half := f.size / 2
	return half + x/f.extent*half, half - y/f.extent*half
}

func (f frame) scale(r float64) float64 {
	return r / f.extent * f.size / 2
}

// OrbitSVG draws the trajectory in the orbital plane with the horizon disc
// and a caption naming the classification.
func OrbitSVG(w io.Writer, tr *physics.Trajectory, horizon float64, c analysis.Classification, size int) error {
	if tr == nil || tr.Len() < 2 {
		return fmt.Errorf("export: need at least two samples to draw an orbit")
	}

	xs, ys := tr.Cartesian()
	f := newFrame(xs, ys, horizon, size)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size)

	cx, cy := f.px(0, 0)
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.2f" fill="#000000" stroke="#444466" stroke-width="1"/>
`, cx, cy, f.scale(horizon))

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, LabelColor(c.Label))
	for i := range xs {
		x, y := f.px(xs[i], ys[i])
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	sx, sy := f.px(xs[0], ys[0])
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="#ffffff"/>
`, sx, sy)

	for _, p := range c.Periapses {
		s, co := math.Sincos(p.Phi)
		x, y := f.px(p.R*co, p.R*s)
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="2" fill="#ff00ff"/>
`, x, y)
	}

	fmt.Fprintf(&sb, `<text x="10" y="20" fill="#cccccc" font-family="monospace" font-size="14">%s</text>
`, caption(tr, c))
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// RadiusSVG draws r(τ) with the horizon as a dashed line.
func RadiusSVG(w io.Writer, tr *physics.Trajectory, horizon float64, c analysis.Classification, width, height int) error {
	if tr == nil || tr.Len() < 2 {
		return fmt.Errorf("export: need at least two samples to draw r(τ)")
	}

	tMin, tMax := tr.Tau[0], tr.Tau[tr.Len()-1]
	rMin, rMax := math.Min(c.RMin, horizon), c.RMax
	if rMax <= rMin {
		rMax = rMin + 1
	}
	if tMax <= tMin {
		tMax = tMin + 1
	}
	pad := (rMax - rMin) * 0.1
	rMin -= pad
	rMax += pad

	px := func(t, r float64) (float64, float64) {
		return (t - tMin) / (tMax - tMin) * float64(width), float64(height) - (r-rMin)/(rMax-rMin)*float64(height)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	_, hy := px(tMin, horizon)
	fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444466" stroke-dasharray="4 4"/>
`, hy, width, hy)

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, LabelColor(c.Label))
	for i := range tr.Tau {
		x, y := px(tr.Tau[i], tr.R[i])
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	fmt.Fprintf(&sb, `<text x="10" y="20" fill="#cccccc" font-family="monospace" font-size="14">%s</text>
`, caption(tr, c))
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func caption(tr *physics.Trajectory, c analysis.Classification) string {
	return fmt.Sprintf("%s · %s · τ ≤ %.4g · r ∈ [%.4g, %.4g]",
		c.Label, tr.Termination, tr.Tau[tr.Len()-1], c.RMin, c.RMax)
}
