package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/geodesim/internal/physics"
)

type Point struct{ X, Y float64 }

// Portrait is a labelled point cloud: either the (r, v_r) phase plane or
// positions in the orbital plane.
type Portrait struct {
	XLabel, YLabel string
	Points         []Point
	// Planar marks orbital-plane portraits, which get the hole drawn at the
	// origin instead of a v_r = 0 axis.
	Planar bool
}

// GeneratePhasePortrait collects the (r, v_r) plane of a trajectory. A bound
// orbit traces a closed curve around the stable circular radius, the level
// set v_r² = E² - V_eff(r).
func GeneratePhasePortrait(tr *physics.Trajectory) *Portrait {
	if tr == nil || tr.Len() == 0 {
		return nil
	}
	p := &Portrait{XLabel: "r", YLabel: "v_r", Points: make([]Point, tr.Len())}
	for i := range tr.R {
		p.Points[i] = Point{X: tr.R[i], Y: tr.VR[i]}
	}
	return p
}

// PeriapsisSection places every periapsis in the orbital plane. For a
// precessing orbit the points march around the hole by the periapsis advance
// each cycle; for a closed Newtonian ellipse they would all coincide.
func PeriapsisSection(c Classification) *Portrait {
	p := &Portrait{XLabel: "x", YLabel: "y", Planar: true, Points: make([]Point, 0, len(c.Periapses))}
	for _, tp := range c.Periapses {
		s, co := math.Sincos(tp.Phi)
		p.Points = append(p.Points, Point{X: tp.R * co, Y: tp.R * s})
	}
	return p
}

type box struct{ x0, x1, y0, y1 float64 }

func (p *Portrait) bounds() box {
	b := box{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, pt := range p.Points {
		b.x0, b.x1 = math.Min(b.x0, pt.X), math.Max(b.x1, pt.X)
		b.y0, b.y1 = math.Min(b.y0, pt.Y), math.Max(b.y1, pt.Y)
	}
	if p.Planar {
		b.x0, b.x1 = math.Min(b.x0, 0), math.Max(b.x1, 0)
		b.y0, b.y1 = math.Min(b.y0, 0), math.Max(b.y1, 0)
	}
	return b.padded(0.1)
}

// padded widens each side by frac of the span; a flat axis gets unit span.
func (b box) padded(frac float64) box {
	dx, dy := b.x1-b.x0, b.y1-b.y0
	if dx == 0 {
		dx = 1
	}
	if dy == 0 {
		dy = 1
	}
	return box{b.x0 - frac*dx, b.x1 + frac*dx, b.y0 - frac*dy, b.y1 + frac*dy}
}

// cell maps a point onto a width x height character grid, row 0 on top.
func (b box) cell(x, y float64, width, height int) (row, col int) {
	col = int((x - b.x0) / (b.x1 - b.x0) * float64(width-1))
	row = height - 1 - int((y-b.y0)/(b.y1-b.y0)*float64(height-1))
	return row, col
}

// ASCII renders the portrait with • per point. The (r, v_r) plane gets a
// v_r = 0 axis; the orbital plane gets the hole at the origin.
func (p *Portrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	b := p.bounds()

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	put := func(row, col int, ch rune) {
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = ch
		}
	}

	if p.Planar {
		row, col := b.cell(0, 0, width, height)
		put(row, col, '●')
	} else if b.y0 <= 0 && b.y1 >= 0 {
		row, _ := b.cell(b.x0, 0, width, height)
		for col := 0; col < width; col++ {
			put(row, col, '─')
		}
	}

	for _, pt := range p.Points {
		row, col := b.cell(pt.X, pt.Y, width, height)
		put(row, col, '•')
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}
