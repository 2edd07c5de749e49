package sweep

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/experiment"
)

var ErrEmptyAxis = fmt.Errorf("sweep: axis needs at least one point: %w", dynamo.ErrInvalidConfig)

// Axis is an inclusive, evenly spaced range.
type Axis struct {
	Min, Max float64
	N        int
}

func (a Axis) Values() []float64 {
	if a.N <= 0 {
		return nil
	}
	if a.N == 1 {
		return []float64{a.Min}
	}
	vals := make([]float64, a.N)
	step := (a.Max - a.Min) / float64(a.N-1)
	for i := range vals {
		vals[i] = a.Min + float64(i)*step
	}
	vals[a.N-1] = a.Max
	return vals
}

// Grid spans angular momentum and initial radial velocity; every other
// setting comes from the base config.
type Grid struct {
	L       Axis
	VR      Axis
	Workers int // zero means GOMAXPROCS
}

type Cell struct {
	L           float64
	VR          float64
	Label       analysis.Label
	Termination dynamo.Termination
	RMin        float64
	RMax        float64
	Err         error
}

// Map is the regime map: Cells[i][j] holds VR[i] and L[j].
type Map struct {
	L     []float64
	VR    []float64
	Cells [][]Cell
}

// Run classifies every grid cell. Cells are independent, so they run in
// parallel; a cell that fails keeps its error and the sweep goes on. Only
// cancellation aborts the sweep.
func Run(ctx context.Context, base *config.Config, grid Grid) (*Map, error) {
	ls, vrs := grid.L.Values(), grid.VR.Values()
	if len(ls) == 0 || len(vrs) == 0 {
		return nil, ErrEmptyAxis
	}

	m := &Map{L: ls, VR: vrs, Cells: make([][]Cell, len(vrs))}
	for i := range m.Cells {
		m.Cells[i] = make([]Cell, len(ls))
	}

	workers := grid.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	slog.Debug("sweep starting", "cells", len(ls)*len(vrs), "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, vr := range vrs {
		for j, l := range ls {
			g.Go(func() error {
				cell := runCell(gctx, base, l, vr)
				m.Cells[i][j] = cell
				if dynamo.KindOf(cell.Err) == dynamo.KindCanceled {
					return cell.Err
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return m, err
	}

	slog.Debug("sweep finished", "counts", m.Counts())
	return m, nil
}

func runCell(ctx context.Context, base *config.Config, l, vr float64) Cell {
	cfg := base.Clone()
	cfg.Orbit.AngularMomentum = l
	cfg.Orbit.RadialVelocity = vr

	cell := Cell{L: l, VR: vr}
	out, err := experiment.New(cfg).WithLogger(slog.New(slog.DiscardHandler)).Run(ctx)
	if err != nil {
		cell.Err = err
		return cell
	}
	cell.Label = out.Classification.Label
	cell.Termination = out.Result.Termination
	cell.RMin = out.Classification.RMin
	cell.RMax = out.Classification.RMax
	return cell
}

// Counts tallies labels; failed cells count under "error".
func (m *Map) Counts() map[string]int {
	counts := make(map[string]int)
	for _, row := range m.Cells {
		for _, c := range row {
			if c.Err != nil {
				counts["error"]++
				continue
			}
			counts[string(c.Label)]++
		}
	}
	return counts
}

var glyphs = map[analysis.Label]byte{
	analysis.LabelPlunging:      'P',
	analysis.LabelScattering:    'S',
	analysis.LabelCircular:      'C',
	analysis.LabelPrecessing:    'R',
	analysis.LabelIndeterminate: '?',
}

// ASCII draws the map with v_r0 increasing upwards and L to the right.
func (m *Map) ASCII() string {
	var sb strings.Builder
	for i := len(m.VR) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%9.3f │", m.VR[i])
		for _, c := range m.Cells[i] {
			g := byte('x')
			if c.Err == nil {
				if v, ok := glyphs[c.Label]; ok {
					g = v
				}
			}
			sb.WriteByte(g)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%9s └%s\n", "", strings.Repeat("─", len(m.L)))
	fmt.Fprintf(&sb, "%9s  L %.3f .. %.3f\n", "", m.L[0], m.L[len(m.L)-1])
	sb.WriteString("P plunging  S scattering  C circular  R precessing  ? indeterminate  x error\n")
	return sb.String()
}

// WriteCSV emits one row per cell.
func (m *Map) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"L", "vr0", "label", "termination", "r_min", "r_max", "error"}); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, row := range m.Cells {
		for _, c := range row {
			errText := ""
			if c.Err != nil {
				errText = c.Err.Error()
			}
			rec := []string{f(c.L), f(c.VR), string(c.Label), string(c.Termination), f(c.RMin), f(c.RMax), errText}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
