package viz

import (
	"math"
	"strings"

	"github.com/san-kum/geodesim/internal/dynamo"
)

// Braille cells hold a 2x4 dot grid:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// starting at U+2800.
const brailleBlank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille dot matrix of Width x Height terminal cells, which is
// (2·Width) x (4·Height) dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) {
	return c.Width * 2, c.Height * 4
}

// Set turns a dot on. Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps plane coordinates centred on the hole to canvas dots. One
// dot covers the same distance on both axes, so circles stay round.
type Viewport struct {
	cx, cy float64
	scale  float64
	trig   *dynamo.TrigTable
}

// NewViewport fits a square of half-width extent into the canvas.
func NewViewport(c *Canvas, extent float64) *Viewport {
	w, h := c.Dots()
	half := math.Min(float64(w), float64(h)) / 2
	if extent <= 0 {
		extent = 1
	}
	return &Viewport{
		cx:    float64(w) / 2,
		cy:    float64(h) / 2,
		scale: (half - 1) / extent,
		trig:  dynamo.DefaultTrigTable,
	}
}

func (v *Viewport) Project(x, y float64) (int, int) {
	return int(math.Round(v.cx + x*v.scale)), int(math.Round(v.cy - y*v.scale))
}

// DrawPolyline joins consecutive polar samples (r, φ).
func (v *Viewport) DrawPolyline(c *Canvas, r, phi []float64) {
	if len(r) == 0 {
		return
	}
	xs, ys := v.trig.Project(r, phi)
	px, py := v.Project(xs[0], ys[0])
	c.Set(px, py)
	for i := 1; i < len(xs); i++ {
		x, y := v.Project(xs[i], ys[i])
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

// DrawCircle draws the circle of the given radius around the hole.
func (v *Viewport) DrawCircle(c *Canvas, radius float64) {
	n := int(math.Max(32, 2*math.Pi*radius*v.scale))
	r := make([]float64, n+1)
	phi := make([]float64, n+1)
	for i := range r {
		r[i] = radius
		phi[i] = 2 * math.Pi * float64(i) / float64(n)
	}
	v.DrawPolyline(c, r, phi)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
