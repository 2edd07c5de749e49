package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/physics"
)

const pngDPI = 150

var horizonGray = color.RGBA{R: 40, G: 40, B: 40, A: 255}

func hexRGBA(hex string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(13)
	p.Y.Label.TextStyle.Font.Size = vg.Points(13)
	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)
	p.Add(plotter.NewGrid())
}

func writePNG(w io.Writer, p *plot.Plot, widthIn, heightIn float64) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(pngDPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("export: write png: %w", err)
	}
	return bw.Flush()
}

// horizonDisc approximates the r = 2M disc with a polygon.
func horizonDisc(radius float64) (*plotter.Polygon, error) {
	const n = 96
	pts := make(plotter.XYs, n)
	for i := range pts {
		pts[i].X, pts[i].Y = dynamo.FastCartesian(radius, 2*math.Pi*float64(i)/n)
	}
	disc, err := plotter.NewPolygon(pts)
	if err != nil {
		return nil, err
	}
	disc.Color = horizonGray
	disc.LineStyle.Width = 0
	return disc, nil
}

// OrbitPNG renders the orbit in the plane with equal axes, the horizon disc
// and the periapses.
func OrbitPNG(w io.Writer, tr *physics.Trajectory, horizon float64, c analysis.Classification) error {
	if tr == nil || tr.Len() < 2 {
		return fmt.Errorf("export: need at least two samples to draw an orbit")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s orbit (%s)", c.Label, tr.Termination)
	p.X.Label.Text = "x / M"
	p.Y.Label.Text = "y / M"
	stylePlot(p)

	disc, err := horizonDisc(horizon)
	if err != nil {
		return err
	}
	p.Add(disc)

	xs, ys := tr.Cartesian()
	pts := make(plotter.XYs, len(xs))
	extent := horizon
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
		extent = math.Max(extent, math.Max(math.Abs(xs[i]), math.Abs(ys[i])))
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.2)
	line.LineStyle.Color = hexRGBA(LabelColor(c.Label))
	p.Add(line)
	p.Legend.Add("trajectory", line)

	if len(c.Periapses) > 0 {
		peri := make(plotter.XYs, len(c.Periapses))
		for i, tp := range c.Periapses {
			peri[i].X, peri[i].Y = dynamo.FastCartesian(tp.R, tp.Phi)
		}
		sc, err := plotter.NewScatter(peri)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2.5)
		sc.GlyphStyle.Color = color.RGBA{R: 255, B: 255, A: 255}
		p.Add(sc)
		p.Legend.Add("periapsis", sc)
	}

	extent *= 1.1
	p.X.Min, p.X.Max = -extent, extent
	p.Y.Min, p.Y.Max = -extent, extent

	return writePNG(w, p, 7, 7)
}

// RadiusPNG renders r(τ) with the horizon level.
func RadiusPNG(w io.Writer, tr *physics.Trajectory, horizon float64, c analysis.Classification) error {
	if tr == nil || tr.Len() < 2 {
		return fmt.Errorf("export: need at least two samples to draw r(τ)")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("r(τ), %s", c.Label)
	p.X.Label.Text = "τ / M"
	p.Y.Label.Text = "r / M"
	stylePlot(p)

	pts := make(plotter.XYs, tr.Len())
	for i := range pts {
		pts[i].X, pts[i].Y = tr.Tau[i], tr.R[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = hexRGBA(LabelColor(c.Label))
	p.Add(line)

	hz, err := plotter.NewLine(plotter.XYs{{X: tr.Tau[0], Y: horizon}, {X: tr.Tau[tr.Len()-1], Y: horizon}})
	if err != nil {
		return err
	}
	hz.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	hz.LineStyle.Color = horizonGray
	p.Add(hz)
	p.Legend.Add("r = 2M", hz)

	return writePNG(w, p, 8, 5)
}

// PotentialPNG renders V_eff(r) over [rMin, rMax] with the E² level of the
// orbit, the way the turning points are read off by hand.
func PotentialPNG(w io.Writer, model physics.Schwarzschild, energy, rMin, rMax float64) error {
	if !(rMax > rMin) || rMin <= 0 {
		return fmt.Errorf("export: bad radius range [%g, %g]", rMin, rMax)
	}

	const n = 400
	pts := make(plotter.XYs, n)
	for i := range pts {
		r := rMin + (rMax-rMin)*float64(i)/(n-1)
		pts[i].X, pts[i].Y = r, model.Potential(r)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("V_eff, L = %.4g", model.L)
	p.X.Label.Text = "r / M"
	p.Y.Label.Text = "V_eff"
	stylePlot(p)

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("V_eff", line)

	level, err := plotter.NewLine(plotter.XYs{{X: rMin, Y: energy}, {X: rMax, Y: energy}})
	if err != nil {
		return err
	}
	level.LineStyle.Color = color.RGBA{R: 220, G: 60, B: 60, A: 255}
	level.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(level)
	p.Legend.Add("E²", level)

	return writePNG(w, p, 8, 5)
}
