package sim

import (
	"math"

	"github.com/san-kum/geodesim/internal/dynamo"
)

// segment is the cubic Hermite interpolant of one accepted step, built from
// the endpoint states and their derivatives.
type segment struct {
	t0, t1 float64
	x0, x1 dynamo.State
	f0, f1 dynamo.State
}

func (s *segment) at(t float64) dynamo.State {
	h := s.t1 - s.t0
	if h == 0 {
		return s.x1.Clone()
	}
	u := (t - s.t0) / h
	u2 := u * u
	u3 := u2 * u
	h00 := 2*u3 - 3*u2 + 1
	h10 := u3 - 2*u2 + u
	h01 := -2*u3 + 3*u2
	h11 := u3 - u2

	x := make(dynamo.State, len(s.x0))
	for i := range x {
		x[i] = h00*s.x0[i] + h10*h*s.f0[i] + h01*s.x1[i] + h11*h*s.f1[i]
	}
	return x
}

const (
	maxBisections = 60
	eventTimeTol  = 1e-12
)

// locate finds the time within the segment at which ev crosses zero. The
// caller has already checked that it crosses between t0 and t1.
func (s *segment) locate(ev dynamo.Event) (float64, dynamo.State) {
	lo, hi := s.t0, s.t1
	gLo := ev.Value(s.x0, s.t0)

	for i := 0; i < maxBisections && hi-lo > eventTimeTol*math.Max(1, math.Abs(hi)); i++ {
		mid := 0.5 * (lo + hi)
		gMid := ev.Value(s.at(mid), mid)
		if ev.Crossed(gLo, gMid) {
			hi = mid
		} else {
			lo, gLo = mid, gMid
		}
	}
	return hi, s.at(hi)
}

// recorder collects output samples, either every accepted step or on a
// uniform grid of spacing every.
type recorder struct {
	every  float64
	next   int
	times  []float64
	states []dynamo.State
}

func newRecorder(every float64, capacity int) *recorder {
	return &recorder{
		every:  every,
		times:  make([]float64, 0, capacity),
		states: make([]dynamo.State, 0, capacity),
	}
}

func (r *recorder) add(t float64, x dynamo.State) {
	r.times = append(r.times, t)
	r.states = append(r.states, x.Clone())
}

func (r *recorder) start(t float64, x dynamo.State) {
	r.add(t, x)
	r.next = 1
}

// cover records every sample falling in (seg.t0, until].
func (r *recorder) cover(seg *segment, until float64) {
	if r.every <= 0 {
		if until >= seg.t1 {
			r.add(seg.t1, seg.x1)
		}
		return
	}
	for {
		ts := float64(r.next) * r.every
		if ts > until {
			return
		}
		if ts == seg.t1 {
			r.add(ts, seg.x1)
		} else {
			r.add(ts, seg.at(ts))
		}
		r.next++
	}
}

// finish appends the terminal sample unless the grid already landed on it.
func (r *recorder) finish(t float64, x dynamo.State) {
	if n := len(r.times); n > 0 && r.times[n-1] >= t {
		return
	}
	r.add(t, x)
}
