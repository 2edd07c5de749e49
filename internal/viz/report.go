package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/automation"
	"github.com/san-kum/geodesim/internal/experiment"
	"github.com/san-kum/geodesim/internal/sweep"
)

const reportWidth = 60

type row struct {
	label, value string
}

func (s Styles) rows(rs []row) string {
	lines := make([]string, len(rs))
	for i, r := range rs {
		lines[i] = s.Label.Render(r.label) + s.Value.Render(r.value)
	}
	return strings.Join(lines, "\n")
}

// Report summarises one run: verdict, orbit diagnostics and solver effort.
func Report(out *experiment.Outcome, t Theme) string {
	s := NewStyles(t)
	c := out.Classification
	o := out.Config.Orbit

	var b strings.Builder
	b.WriteString(GradientText("geodesim", t.Primary, t.Labels[c.Label]))
	b.WriteString("  ")
	b.WriteString(t.LabelStyle(c.Label).Render(strings.ToUpper(string(c.Label))))
	b.WriteString("\n")
	b.WriteString(s.Subtle.Render(c.Reason))
	b.WriteString("\n\n")

	initial := []row{
		{"M, L", fmt.Sprintf("%g, %g", o.Mass, o.AngularMomentum)},
		{"r0, v_r0, φ0", fmt.Sprintf("%g, %g, %g", o.Radius, o.RadialVelocity, o.Phi)},
		{"E²", fmt.Sprintf("%.10g", out.Model.Energy(out.Trajectory.State(0)))},
	}
	if stable, unstable, ok := out.Model.CircularOrbits(); ok {
		initial = append(initial, row{"circular radii", fmt.Sprintf("%.4g stable, %.4g unstable", stable, unstable)})
	}
	b.WriteString(s.Box("Initial conditions", s.rows(initial)))
	b.WriteString("\n")

	orbit := []row{
		{"termination", string(c.Termination)},
		{"τ final", fmt.Sprintf("%.6g", out.Trajectory.Tau[out.Trajectory.Len()-1])},
		{"r range", fmt.Sprintf("[%.6g, %.6g]", c.RMin, c.RMax)},
		{"max |r-r0|/r0", fmt.Sprintf("%.3e", c.MaxDeviation)},
		{"turning points", fmt.Sprintf("%d peri, %d apo", len(c.Periapses), len(c.Apoapses))},
		{"revolutions", fmt.Sprintf("%.3f", c.Revolutions)},
	}
	if c.RadialPeriod > 0 {
		orbit = append(orbit,
			row{"eccentricity", fmt.Sprintf("%.4f", c.Eccentricity)},
			row{"radial period", fmt.Sprintf("%.4g", c.RadialPeriod)},
			row{"precession / orbit", fmt.Sprintf("%.4f rad (%.2f°)", c.PrecessionPerOrbit, c.PrecessionPerOrbit*180/math.Pi)},
		)
	}
	if sp, err := analysis.RadialSpectrum(out.Trajectory); err == nil {
		if p := sp.DominantPeriod(); p > 0 && c.Label != analysis.LabelCircular {
			orbit = append(orbit, row{"spectral period", fmt.Sprintf("%.4g", p)})
		}
	}
	b.WriteString(s.Box("Orbit", s.rows(orbit)))
	b.WriteString("\n")

	solver := []row{
		{"integrator", out.Config.Integrator},
		{"steps", fmt.Sprintf("%d accepted, %d rejected", out.Result.StepsTaken, out.Result.StepsRejected)},
		{"samples", fmt.Sprintf("%d", out.Trajectory.Len())},
		{"event radii", fmt.Sprintf("capture %.4g, escape %.4g", out.CaptureRadius, out.EscapeRadius)},
		{"constraint residual", fmt.Sprintf("%.3e", out.ConstraintResidual)},
	}
	names := make([]string, 0, len(out.Result.Metrics))
	for name := range out.Result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		solver = append(solver, row{name, fmt.Sprintf("%.4g", out.Result.Metrics[name])})
	}
	solver = append(solver, row{"elapsed", out.Elapsed.String()})
	b.WriteString(s.Box("Solver", s.rows(solver)))
	b.WriteString("\n")

	b.WriteString(s.Subtle.Render("r(τ) "))
	b.WriteString(lipgloss.NewStyle().Foreground(t.Labels[c.Label]).Render(Sparkline(out.Trajectory.R, reportWidth-5)))
	b.WriteString("\n")
	return b.String()
}

// SweepReport colours the glyph map of a sweep by label.
func SweepReport(m *sweep.Map, t Theme) string {
	s := NewStyles(t)
	glyphStyle := map[rune]lipgloss.Style{
		'P': t.LabelStyle(analysis.LabelPlunging),
		'S': t.LabelStyle(analysis.LabelScattering),
		'C': t.LabelStyle(analysis.LabelCircular),
		'R': t.LabelStyle(analysis.LabelPrecessing),
		'?': t.LabelStyle(analysis.LabelIndeterminate),
		'x': s.Error,
	}

	lines := strings.Split(strings.TrimRight(m.ASCII(), "\n"), "\n")
	var b strings.Builder
	b.WriteString(s.Title.Render(fmt.Sprintf("Orbit families, %d x %d", len(m.L), len(m.VR))))
	b.WriteString("\n")
	for _, line := range lines {
		axis, cells, ok := strings.Cut(line, "│")
		if !ok {
			b.WriteString(s.Subtle.Render(line))
			b.WriteString("\n")
			continue
		}
		b.WriteString(s.Subtle.Render(axis + "│"))
		for _, g := range cells {
			if st, ok := glyphStyle[g]; ok {
				b.WriteString(st.Render(string(g)))
			} else {
				b.WriteRune(g)
			}
		}
		b.WriteString("\n")
	}

	counts := m.Counts()
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tally := make([]string, len(keys))
	for i, k := range keys {
		tally[i] = fmt.Sprintf("%s %d", k, counts[k])
	}
	b.WriteString(s.Subtle.Render(strings.Join(tally, "  ")))
	b.WriteString("\n")
	return b.String()
}

// ScenarioReport lists each step with its expected and actual label.
func ScenarioReport(name string, results []automation.StepResult, t Theme) string {
	s := NewStyles(t)
	var b strings.Builder
	b.WriteString(s.Title.Render("Scenario " + name))
	b.WriteString("\n")

	for _, r := range results {
		mark := t.LabelStyle(analysis.LabelPrecessing).Render("✓")
		if !r.Matched() {
			mark = s.Error.Render("✗")
		}
		var got string
		switch {
		case r.Err != nil:
			got = s.Error.Render(r.Err.Error())
		default:
			l := r.Outcome.Classification.Label
			got = t.LabelStyle(l).Render(string(l))
		}
		want := string(r.Step.Expect)
		if want == "" {
			want = "-"
		}
		fmt.Fprintf(&b, "%s %s %s %s\n", mark, s.Label.Render(r.Step.Name), s.Subtle.Render("expect "+want+", got"), got)
	}

	bad := automation.Mismatches(results)
	b.WriteString(s.Separator(reportWidth))
	b.WriteString("\n")
	summary := fmt.Sprintf("%d of %d steps matched", len(results)-bad, len(results))
	if bad > 0 {
		b.WriteString(s.Error.Render(summary))
	} else {
		b.WriteString(s.Value.Render(summary))
	}
	b.WriteString("\n")
	return b.String()
}

// EnsembleReport shows the label distribution of a perturbed ensemble as
// bars.
func EnsembleReport(shares []automation.LabelShare, t Theme) string {
	s := NewStyles(t)
	const barWidth = 30

	var b strings.Builder
	b.WriteString(s.Title.Render("Label distribution"))
	b.WriteString("\n")
	for _, sh := range shares {
		st := t.LabelStyle(analysis.Label(sh.Label))
		if sh.Label == "error" {
			st = s.Error
		}
		filled := int(math.Round(sh.Fraction * barWidth))
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		fmt.Fprintf(&b, "%s %s %s\n", s.Label.Render(sh.Label), st.Render(bar), s.Value.Render(fmt.Sprintf("%5.1f%% (%d)", 100*sh.Fraction, sh.Count)))
	}
	return b.String()
}
