package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/physics"
)

// RadiusChart plots r(τ).
func RadiusChart(tr *physics.Trajectory, width, height int) string {
	if tr == nil || tr.Len() == 0 {
		return ""
	}
	return asciigraph.Plot(tr.R,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.Caption(fmt.Sprintf("r(τ), τ ∈ [%.4g, %.4g]", tr.Tau[0], tr.Tau[tr.Len()-1])),
	)
}

// PotentialChart plots V_eff over [rMin, rMax] together with the level E².
// The orbit is confined to where the curve lies below the level.
func PotentialChart(model physics.Schwarzschild, energy, rMin, rMax float64, width, height int) string {
	if width < 2 || !(rMax > rMin) {
		return ""
	}
	veff := make([]float64, width)
	level := make([]float64, width)
	for i := range veff {
		r := rMin + (rMax-rMin)*float64(i)/float64(width-1)
		veff[i] = model.Potential(r)
		level[i] = energy
	}
	return asciigraph.PlotMany([][]float64{veff, level},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(4),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.Red),
		asciigraph.Caption(fmt.Sprintf("V_eff(r), r ∈ [%.3g, %.3g], L = %.4g, E² = %.6g", rMin, rMax, model.L, energy)),
	)
}

// SpectrumChart plots the amplitude spectrum up to maxFreq (all of it when
// maxFreq is not positive).
func SpectrumChart(sp *analysis.Spectrum, maxFreq float64, width, height int) string {
	if sp == nil || len(sp.Amplitudes) < 2 {
		return ""
	}
	n := len(sp.Amplitudes)
	if maxFreq > 0 {
		for n > 2 && sp.Frequencies[n-1] > maxFreq {
			n--
		}
	}
	return asciigraph.Plot(sp.Amplitudes[:n],
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.Caption(fmt.Sprintf("|R(f)|, f ∈ [0, %.4g] cycles per τ", sp.Frequencies[n-1])),
	)
}
