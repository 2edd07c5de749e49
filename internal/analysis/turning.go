package analysis

import (
	"github.com/san-kum/geodesim/internal/physics"
)

type TurningKind int

const (
	Periapsis TurningKind = iota
	Apoapsis
)

func (k TurningKind) String() string {
	if k == Apoapsis {
		return "apoapsis"
	}
	return "periapsis"
}

// TurningPoint is a radial extremum: v_r changes sign there.
type TurningPoint struct {
	Kind  TurningKind `json:"kind"`
	Index int         `json:"index"` // sample at or just before the extremum
	Tau   float64     `json:"tau"`
	R     float64     `json:"r"`
	Phi   float64     `json:"phi"`
}

// TurningPoints scans the sampled v_r for sign changes. Each extremum is
// refined assuming constant radial acceleration across the bracketing
// interval, so r follows a parabola and the vertex lies where the linearly
// interpolated v_r vanishes.
//
// A run that starts at rest (v_r0 = 0) begins at a turning point; its kind
// comes from the sign of the radial acceleration there.
func TurningPoints(tr *physics.Trajectory, model physics.Schwarzschild) []TurningPoint {
	n := tr.Len()
	if n < 2 {
		return nil
	}

	points := make([]TurningPoint, 0, 16)
	last := sign(tr.VR[0])

	if last == 0 {
		a := sign(model.RadialAcceleration(tr.R[0]))
		switch {
		case a > 0:
			points = append(points, TurningPoint{Kind: Periapsis, Tau: tr.Tau[0], R: tr.R[0], Phi: tr.Phi[0]})
		case a < 0:
			points = append(points, TurningPoint{Kind: Apoapsis, Tau: tr.Tau[0], R: tr.R[0], Phi: tr.Phi[0]})
		}
		last = a
	}

	for i := 1; i < n; i++ {
		s := sign(tr.VR[i])
		if s == 0 {
			continue
		}
		if last != 0 && s != last {
			points = append(points, refine(tr, i-1, i, s))
		}
		last = s
	}
	return points
}

// refine places the extremum inside [i, j] where v_r goes from one sign to
// s.
func refine(tr *physics.Trajectory, i, j, s int) TurningPoint {
	kind := Apoapsis
	if s > 0 {
		kind = Periapsis
	}

	v0, v1 := tr.VR[i], tr.VR[j]
	span := tr.Tau[j] - tr.Tau[i]
	frac := 0.0
	if v0 != v1 {
		frac = v0 / (v0 - v1)
	}
	if frac < 0 || frac > 1 {
		frac = 0.5
	}

	// With v_r linear in τ, r gains the mean velocity v0/2 times the elapsed span.
	ds := frac * span
	return TurningPoint{
		Kind:  kind,
		Index: i,
		Tau:   tr.Tau[i] + ds,
		R:     tr.R[i] + 0.5*v0*ds,
		Phi:   tr.Phi[i] + frac*(tr.Phi[j]-tr.Phi[i]),
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Split separates periapses from apoapses, keeping order.
func Split(points []TurningPoint) (peri, apo []TurningPoint) {
	for _, p := range points {
		if p.Kind == Periapsis {
			peri = append(peri, p)
		} else {
			apo = append(apo, p)
		}
	}
	return peri, apo
}
