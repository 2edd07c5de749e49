// Package optim locates the boundary between plunging and bound orbits.
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/experiment"
)

var ErrNoTransition = errors.New("optim: no plunge-to-bound transition in range")

// CriticalSearch finds the angular momentum at which an orbit released from
// the base initial condition stops falling into the hole. L is scanned on a
// grid to bracket the first transition, which is then bisected.
type CriticalSearch struct {
	Base      *config.Config
	ScanSteps int
	Tolerance float64
}

type CriticalResult struct {
	// Plunging is the largest L seen to plunge, Bound the smallest that did not.
	Plunging float64 `json:"plunging"`
	Bound    float64 `json:"bound"`
	Runs     int     `json:"runs"`
}

// L is the midpoint of the final bracket.
func (r CriticalResult) L() float64 {
	return (r.Plunging + r.Bound) / 2
}

func NewCriticalSearch(base *config.Config) *CriticalSearch {
	return &CriticalSearch{Base: base, ScanSteps: 16, Tolerance: 1e-4}
}

func (s *CriticalSearch) Search(ctx context.Context, lo, hi float64) (CriticalResult, error) {
	if !(hi > lo) || s.ScanSteps < 1 || !(s.Tolerance > 0) {
		return CriticalResult{}, fmt.Errorf("optim: bad search range [%g, %g]: %w", lo, hi, dynamo.ErrInvalidConfig)
	}

	var res CriticalResult
	quiet := slog.New(slog.DiscardHandler)
	plunges := func(l float64) (bool, error) {
		cfg := s.Base.Clone()
		cfg.Orbit.AngularMomentum = l
		res.Runs++
		out, err := experiment.New(cfg).WithLogger(quiet).Run(ctx)
		if err != nil {
			return false, fmt.Errorf("L=%g: %w", l, err)
		}
		return out.Classification.Label == analysis.LabelPlunging, nil
	}

	prev, err := plunges(lo)
	if err != nil {
		return res, err
	}
	left, right := lo, lo
	found := false
	step := (hi - lo) / float64(s.ScanSteps)
	for i := 1; i <= s.ScanSteps; i++ {
		l := lo + float64(i)*step
		cur, err := plunges(l)
		if err != nil {
			return res, err
		}
		if prev && !cur {
			left, right = l-step, l
			found = true
			break
		}
		prev = cur
	}
	if !found {
		return res, ErrNoTransition
	}
	slog.Debug("critical L bracketed", "lo", left, "hi", right, "runs", res.Runs)

	for right-left > s.Tolerance {
		mid := (left + right) / 2
		p, err := plunges(mid)
		if err != nil {
			return res, err
		}
		if p {
			left = mid
		} else {
			right = mid
		}
	}

	res.Plunging, res.Bound = left, right
	slog.Info("critical L", "L", res.L(), "bracket", right-left, "runs", res.Runs)
	return res, nil
}
