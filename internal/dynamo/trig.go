package dynamo

import "math"

// TrigTable projects polar samples onto the plane through a sampled
// sin/cos table with linear interpolation. Raster output never needs more
// than the table resolution, and orbits are projected sample by sample.
type TrigTable struct {
	sin, cos []float64
	step     float64
}

// DefaultTrigTable has 4096 entries, about 0.0015 rad apart.
var DefaultTrigTable = NewTrigTable(4096)

func NewTrigTable(n int) *TrigTable {
	if n < 2 {
		n = 2
	}
	t := &TrigTable{
		sin:  make([]float64, n),
		cos:  make([]float64, n),
		step: 2 * math.Pi / float64(n),
	}
	for i := range t.sin {
		t.sin[i], t.cos[i] = math.Sincos(float64(i) * t.step)
	}
	return t
}

// SinCos interpolates between the two entries around the wrapped angle.
func (t *TrigTable) SinCos(phi float64) (sin, cos float64) {
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	pos := phi / t.step
	lo := int(pos)
	w := pos - float64(lo)
	n := len(t.sin)
	lo %= n
	hi := (lo + 1) % n

	sin = t.sin[lo] + w*(t.sin[hi]-t.sin[lo])
	cos = t.cos[lo] + w*(t.cos[hi]-t.cos[lo])
	return sin, cos
}

func (t *TrigTable) ToCartesian(r, phi float64) (x, y float64) {
	s, c := t.SinCos(phi)
	return r * c, r * s
}

// Project converts whole (r, φ) columns; len(phi) must be at least len(r).
func (t *TrigTable) Project(r, phi []float64) (xs, ys []float64) {
	xs = make([]float64, len(r))
	ys = make([]float64, len(r))
	for i := range r {
		xs[i], ys[i] = t.ToCartesian(r[i], phi[i])
	}
	return xs, ys
}

// FastCartesian projects through DefaultTrigTable.
func FastCartesian(r, phi float64) (float64, float64) {
	return DefaultTrigTable.ToCartesian(r, phi)
}
