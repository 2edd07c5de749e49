package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/physics"
)

type Label string

const (
	LabelPlunging      Label = "plunging"
	LabelScattering    Label = "scattering"
	LabelCircular      Label = "circular"
	LabelPrecessing    Label = "precessing"
	LabelIndeterminate Label = "indeterminate"
)

// Labels lists every label in report order.
var Labels = []Label{LabelPlunging, LabelScattering, LabelCircular, LabelPrecessing, LabelIndeterminate}

const (
	DefaultCircularTolerance = 1e-3
	DefaultExtremumTolerance = 1e-2
)

var ErrEmptyTrajectory = errors.New("analysis: trajectory has no samples")

// Classification is the label of one trajectory plus the numbers it was
// derived from.
type Classification struct {
	Label       Label              `json:"label"`
	Termination dynamo.Termination `json:"termination"`
	Reason      string             `json:"reason"`

	RMin float64 `json:"r_min"`
	RMax float64 `json:"r_max"`
	// MaxDeviation is max|r - r0| / r0.
	MaxDeviation float64 `json:"max_deviation"`

	Periapses []TurningPoint `json:"periapses,omitempty"`
	Apoapses  []TurningPoint `json:"apoapses,omitempty"`

	// Eccentricity is the shape ratio (r_max - r_min)/(r_max + r_min).
	Eccentricity float64 `json:"eccentricity"`
	// RadialPeriod is the mean τ between successive periapses (or apoapses
	// when fewer than two periapses were seen). Zero when unknown.
	RadialPeriod float64 `json:"radial_period"`
	// PrecessionPerOrbit is the mean advance of the periapsis per radial
	// cycle, Δφ - 2π, in radians.
	PrecessionPerOrbit float64 `json:"precession_per_orbit"`
	Revolutions        float64 `json:"revolutions"`
}

// Classifier labels finished trajectories from their shape alone; it never
// looks at L or v_r0 directly.
type Classifier struct {
	Model physics.Schwarzschild
	// CircularTolerance is ε: the band |r - r0| < ε·r0 counts as circular.
	CircularTolerance float64
	// ExtremumTolerance bounds the relative spread of periapsis radii and of
	// apoapsis radii for a precessing orbit.
	ExtremumTolerance float64
}

func NewClassifier(model physics.Schwarzschild) *Classifier {
	return &Classifier{
		Model:             model,
		CircularTolerance: DefaultCircularTolerance,
		ExtremumTolerance: DefaultExtremumTolerance,
	}
}

// Classify applies the rules in order; the first match wins.
//
//  1. capture: plunging
//  2. escape: scattering if no apoapsis was seen, otherwise indeterminate
//  3. r within ε·r0 of r0 for at least one revolution: circular
//  4. r within ε·r0 of r0 for less than a revolution: indeterminate
//  5. two or more periapses or apoapses at consistent radii: precessing
//  6. anything else: indeterminate
func (c *Classifier) Classify(tr *physics.Trajectory) (Classification, error) {
	if tr == nil || tr.Len() == 0 {
		return Classification{}, ErrEmptyTrajectory
	}

	out := c.diagnose(tr)
	n := tr.Len()
	sweep := math.Abs(tr.Phi[n-1] - tr.Phi[0])

	switch {
	case tr.Termination == physics.TerminationCapture:
		out.Label = LabelPlunging
		out.Reason = fmt.Sprintf("crossed r=%.4g at τ=%.4g", tr.R[n-1], tr.Tau[n-1])

	case tr.Termination == physics.TerminationEscape:
		if len(out.Apoapses) == 0 {
			out.Label = LabelScattering
			out.Reason = fmt.Sprintf("escaped past r=%.4g after closest approach r=%.4g", tr.R[n-1], out.RMin)
		} else {
			out.Label = LabelIndeterminate
			out.Reason = fmt.Sprintf("escaped after %d apoapses", len(out.Apoapses))
		}

	case out.MaxDeviation < c.CircularTolerance && sweep >= 2*math.Pi:
		out.Label = LabelCircular
		out.Reason = fmt.Sprintf("|r-r0|/r0 <= %.2g over %.2f revolutions", out.MaxDeviation, out.Revolutions)

	case out.MaxDeviation < c.CircularTolerance:
		out.Label = LabelIndeterminate
		out.Reason = fmt.Sprintf("radius steady but only %.2f revolutions observed", out.Revolutions)

	case len(out.Periapses) >= 2 || len(out.Apoapses) >= 2:
		peri, apo := radii(out.Periapses), radii(out.Apoapses)
		ps, as := relativeSpread(peri), relativeSpread(apo)
		if ps <= c.ExtremumTolerance && as <= c.ExtremumTolerance {
			out.Label = LabelPrecessing
			out.Reason = fmt.Sprintf("%d periapses, %d apoapses between r=%.4g and r=%.4g",
				len(out.Periapses), len(out.Apoapses), out.RMin, out.RMax)
		} else {
			out.Label = LabelIndeterminate
			out.Reason = fmt.Sprintf("extrema drift: periapsis spread %.2g, apoapsis spread %.2g", ps, as)
		}

	default:
		out.Label = LabelIndeterminate
		out.Reason = fmt.Sprintf("less than one radial cycle in τ<=%.4g", tr.Tau[n-1])
	}

	return out, nil
}

func (c *Classifier) diagnose(tr *physics.Trajectory) Classification {
	n := tr.Len()
	r0 := tr.R[0]

	out := Classification{
		Termination: tr.Termination,
		RMin:        floats.Min(tr.R),
		RMax:        floats.Max(tr.R),
		Revolutions: math.Abs(tr.Phi[n-1]-tr.Phi[0]) / (2 * math.Pi),
	}
	if r0 > 0 {
		out.MaxDeviation = math.Max(out.RMax-r0, r0-out.RMin) / r0
	}
	if out.RMax+out.RMin > 0 {
		out.Eccentricity = (out.RMax - out.RMin) / (out.RMax + out.RMin)
	}

	out.Periapses, out.Apoapses = Split(TurningPoints(tr, c.Model))

	ref := out.Periapses
	if len(ref) < 2 {
		ref = out.Apoapses
	}
	if len(ref) >= 2 {
		dtau := make([]float64, len(ref)-1)
		dphi := make([]float64, len(ref)-1)
		for i := 1; i < len(ref); i++ {
			dtau[i-1] = ref[i].Tau - ref[i-1].Tau
			dphi[i-1] = math.Abs(ref[i].Phi-ref[i-1].Phi) - 2*math.Pi
		}
		out.RadialPeriod = stat.Mean(dtau, nil)
		out.PrecessionPerOrbit = stat.Mean(dphi, nil)
	}
	return out
}

func radii(points []TurningPoint) []float64 {
	rs := make([]float64, len(points))
	for i, p := range points {
		rs[i] = p.R
	}
	return rs
}

// relativeSpread is std-dev / mean; zero for fewer than two values.
func relativeSpread(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if mean == 0 {
		return math.Inf(1)
	}
	return std / math.Abs(mean)
}
