package viz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/automation"
	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/experiment"
	"github.com/san-kum/geodesim/internal/physics"
	"github.com/san-kum/geodesim/internal/sweep"
)

func TestCanvasDots(t *testing.T) {
	c := NewCanvas(4, 2)
	if w, h := c.Dots(); w != 8 || h != 8 {
		t.Fatalf("Dots = %d x %d", w, h)
	}

	c.Set(0, 0)
	c.Set(7, 7)
	c.Set(-1, 3)
	c.Set(8, 0)
	if !c.IsSet(0, 0) || !c.IsSet(7, 7) || c.IsSet(1, 0) {
		t.Error("unexpected dot state")
	}
	if c.Grid[0][0] != 0x2801 || c.Grid[1][3] != 0x2880 {
		t.Errorf("unexpected cells %U %U", c.Grid[0][0], c.Grid[1][3])
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("Clear left a dot")
	}
	if got := strings.Count(c.String(), "\n"); got != 2 {
		t.Errorf("expected 2 rows, got %d", got)
	}
}

func TestDrawLine(t *testing.T) {
	c := NewCanvas(10, 3)
	c.DrawLine(0, 0, 19, 11)
	if !c.IsSet(0, 0) || !c.IsSet(19, 11) {
		t.Error("line endpoints missing")
	}
}

func TestViewportCircleIsRound(t *testing.T) {
	c := NewCanvas(40, 20)
	v := NewViewport(c, 10)
	v.DrawCircle(c, 10)

	cx, cy := v.Project(0, 0)
	if c.IsSet(cx, cy) {
		t.Error("centre should be empty")
	}
	for _, p := range [][2]float64{{10, 0}, {-10, 0}, {0, 10}, {0, -10}} {
		x, y := v.Project(p[0], p[1])
		if !c.IsSet(x, y) {
			t.Errorf("circle misses (%g, %g) at dot (%d, %d)", p[0], p[1], x, y)
		}
	}
	// equal scale on both axes
	rx, _ := v.Project(10, 0)
	_, ty := v.Project(0, 10)
	if rx-cx != cy-ty {
		t.Errorf("aspect mismatch: %d vs %d", rx-cx, cy-ty)
	}
}

func circularTrajectory() *physics.Trajectory {
	tr := &physics.Trajectory{}
	for i := 0; i <= 200; i++ {
		tau := float64(i)
		tr.Tau = append(tr.Tau, tau)
		tr.R = append(tr.R, 10)
		tr.VR = append(tr.VR, 0)
		tr.Phi = append(tr.Phi, 0.05*tau)
	}
	return tr
}

func TestOrbitASCII(t *testing.T) {
	out := OrbitASCII(circularTrajectory(), 2, 30, 15)
	if strings.Count(out, "\n") != 15 {
		t.Errorf("expected 15 rows:\n%s", out)
	}
	if strings.Trim(out, "\u2800\n") == "" {
		t.Error("nothing drawn")
	}
	if OrbitASCII(nil, 2, 10, 5) == "" {
		t.Error("horizon should be drawn even without a trajectory")
	}
}

func TestCharts(t *testing.T) {
	tr := circularTrajectory()
	tr.R[100] = 11
	if out := RadiusChart(tr, 40, 8); !strings.Contains(out, "r(τ)") {
		t.Errorf("missing caption:\n%s", out)
	}
	if RadiusChart(nil, 40, 8) != "" {
		t.Error("expected empty chart for nil trajectory")
	}

	m := physics.New(1, 4)
	out := PotentialChart(m, 0.95, 3, 40, 50, 10)
	if !strings.Contains(out, "V_eff") || strings.Count(out, "\n") < 10 {
		t.Errorf("unexpected potential chart:\n%s", out)
	}
	if PotentialChart(m, 0.95, 40, 3, 50, 10) != "" {
		t.Error("expected empty chart for inverted range")
	}
}

func TestSpectrumChart(t *testing.T) {
	sp := &analysis.Spectrum{
		Frequencies: []float64{0, 0.01, 0.02, 0.03, 0.04},
		Amplitudes:  []float64{0, 1, 3, 1, 0},
	}
	if out := SpectrumChart(sp, 0.025, 30, 6); !strings.Contains(out, "0.02 cycles") {
		t.Errorf("unexpected chart:\n%s", out)
	}
	if SpectrumChart(nil, 0, 30, 6) != "" {
		t.Error("expected empty chart")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8); got != "▁▂▃▄▅▆▇█" {
		t.Errorf("Sparkline = %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("empty Sparkline = %q", got)
	}
	if got := []rune(Sparkline(make([]float64, 100), 10)); len(got) != 10 {
		t.Errorf("expected 10 glyphs, got %d", len(got))
	}
}

func TestHexRoundTrip(t *testing.T) {
	r, g, b := parseHex("#0a80Ff")
	if r != 10 || g != 128 || b != 255 {
		t.Errorf("parseHex = %d %d %d", r, g, b)
	}
	if got := hexColor(10, 128, 300); got != "#0a80ff" {
		t.Errorf("hexColor = %s", got)
	}
	if GradientText("", "#000000", "#ffffff") != "" {
		t.Error("expected empty gradient")
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != "cyberpunk" {
		t.Error("unknown theme should fall back")
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, l := range analysis.Labels {
			if _, ok := th.Labels[l]; !ok {
				t.Errorf("theme %s lacks a color for %s", name, l)
			}
		}
	}
}

func TestReport(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Orbit = config.OrbitConfig{Mass: 1, AngularMomentum: 1, RadialVelocity: -0.5, Radius: 5}
	out, err := experiment.New(cfg).WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	rep := Report(out, ThemeMinimal)
	for _, want := range []string{"PLUNGING", "capture", "energy_drift", "horizon_margin", "r(τ)"} {
		if !strings.Contains(rep, want) {
			t.Errorf("report missing %q:\n%s", want, rep)
		}
	}
}

func TestSweepReport(t *testing.T) {
	m := &sweep.Map{
		L:  []float64{3, 4},
		VR: []float64{0},
		Cells: [][]sweep.Cell{{
			{L: 3, Label: analysis.LabelPlunging},
			{L: 4, Err: errors.New("boom")},
		}},
	}
	out := SweepReport(m, ThemeRetro)
	if !strings.Contains(out, "P") || !strings.Contains(out, "x") || !strings.Contains(out, "error 1") {
		t.Errorf("unexpected sweep report:\n%s", out)
	}
}

func TestScenarioAndEnsembleReports(t *testing.T) {
	results := []automation.StepResult{
		{Step: automation.ScenarioStep{Name: "ok", Expect: analysis.LabelCircular},
			Outcome: &experiment.Outcome{Classification: analysis.Classification{Label: analysis.LabelCircular}}},
		{Step: automation.ScenarioStep{Name: "bad"}, Err: errors.New("diverged")},
	}
	out := ScenarioReport("demo", results, ThemeCyberpunk)
	if !strings.Contains(out, "1 of 2 steps matched") || !strings.Contains(out, "diverged") {
		t.Errorf("unexpected scenario report:\n%s", out)
	}

	shares := []automation.LabelShare{{Label: "precessing", Count: 3, Fraction: 0.75}, {Label: "error", Count: 1, Fraction: 0.25}}
	out = EnsembleReport(shares, ThemeCyberpunk)
	if !strings.Contains(out, "75.0%") || !strings.Contains(out, "error") {
		t.Errorf("unexpected ensemble report:\n%s", out)
	}
}
