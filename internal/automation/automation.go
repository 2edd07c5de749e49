package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/experiment"
)

// Scenario defines a scripted sequence of orbits
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one orbit: a preset (or the defaults) plus overrides,
// with an optional expected label.
type ScenarioStep struct {
	Name            string         `yaml:"name"`
	Preset          string         `yaml:"preset,omitempty"`
	AngularMomentum *float64       `yaml:"angular_momentum,omitempty"`
	RadialVelocity  *float64       `yaml:"radial_velocity,omitempty"`
	Radius          *float64       `yaml:"radius,omitempty"`
	Integrator      string         `yaml:"integrator,omitempty"`
	Duration        float64        `yaml:"duration,omitempty"`
	Expect          analysis.Label `yaml:"expect,omitempty"`
}

type StepResult struct {
	Step    ScenarioStep
	Outcome *experiment.Outcome
	Err     error
}

// Matched reports whether the step ran and produced the expected label.
// Steps without an expectation match whenever they ran.
func (r StepResult) Matched() bool {
	if r.Err != nil {
		return false
	}
	return r.Step.Expect == "" || r.Outcome.Classification.Label == r.Step.Expect
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("automation: parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("automation: scenario %q has no steps: %w", scenario.Name, dynamo.ErrInvalidConfig)
	}

	return &scenario, nil
}

func SaveScenario(path string, scenario *Scenario) error {
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultScenario is the four demonstration orbits with their families.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name:        "demonstration",
		Description: "one orbit of each family around an M=1 black hole",
		Steps: []ScenarioStep{
			{Name: "circular", Preset: "circular", Expect: analysis.LabelCircular},
			{Name: "precessing", Preset: "precessing", Expect: analysis.LabelPrecessing},
			{Name: "scattering", Preset: "scattering", Expect: analysis.LabelScattering},
			{Name: "plunging", Preset: "plunging", Expect: analysis.LabelPlunging},
		},
	}
}

// Config builds the run configuration for a step on top of base.
func (s ScenarioStep) Config(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if s.Preset != "" {
		p, ok := config.Presets[s.Preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q: %w", s.Preset, dynamo.ErrInvalidConfig)
		}
		cfg.ApplyPreset(p)
	}
	if s.AngularMomentum != nil {
		cfg.Orbit.AngularMomentum = *s.AngularMomentum
	}
	if s.RadialVelocity != nil {
		cfg.Orbit.RadialVelocity = *s.RadialVelocity
	}
	if s.Radius != nil {
		cfg.Orbit.Radius = *s.Radius
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Duration > 0 {
		cfg.Solver.Duration = s.Duration
	}
	return cfg, nil
}

// RunScenario executes all steps in order. A failing step is recorded and
// the scenario continues; the returned error is only set on cancellation.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		slog.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", step.Name)

		res := StepResult{Step: step}
		cfg, err := step.Config(base)
		if err == nil {
			res.Outcome, err = experiment.New(cfg).Run(ctx)
		}
		res.Err = err
		results = append(results, res)

		if err != nil {
			if dynamo.KindOf(err) == dynamo.KindCanceled {
				return results, err
			}
			slog.Warn("scenario step failed", "name", step.Name, "err", err)
			continue
		}
		if !res.Matched() {
			slog.Warn("unexpected label", "name", step.Name,
				"want", string(step.Expect), "got", string(res.Outcome.Classification.Label))
		}
	}

	return results, nil
}

// Mismatches counts steps that failed or produced an unexpected label.
func Mismatches(results []StepResult) int {
	n := 0
	for _, r := range results {
		if !r.Matched() {
			n++
		}
	}
	return n
}

// MonteCarloConfig perturbs an orbit to probe how robust its label is.
// Each trial draws L, v_r0 and r0 uniformly within ± the given spreads.
type MonteCarloConfig struct {
	Base      *config.Config
	DeltaL    float64
	DeltaVR   float64
	DeltaR    float64
	NumTrials int
	Seed      int64
}

// MonteCarloResult holds one perturbed trial
type MonteCarloResult struct {
	TrialID int
	Orbit   config.OrbitConfig
	Label   analysis.Label
	Err     error
}

// RunMonteCarlo executes the trials in sequence. The seed fixes the draws,
// so equal configs give equal results.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("automation: need at least one trial: %w", dynamo.ErrInvalidConfig)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	quiet := slog.New(slog.DiscardHandler)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		run := cfg.Base.Clone()
		run.Orbit.AngularMomentum += (rng.Float64()*2 - 1) * cfg.DeltaL
		run.Orbit.RadialVelocity += (rng.Float64()*2 - 1) * cfg.DeltaVR
		run.Orbit.Radius += (rng.Float64()*2 - 1) * cfg.DeltaR

		res := MonteCarloResult{TrialID: trial, Orbit: run.Orbit}
		out, err := experiment.New(run).WithLogger(quiet).Run(ctx)
		if err != nil {
			if dynamo.KindOf(err) == dynamo.KindCanceled {
				return results, err
			}
			res.Err = err
		} else {
			res.Label = out.Classification.Label
		}
		results = append(results, res)

		if (trial+1)%10 == 0 {
			slog.Debug("monte carlo progress", "done", trial+1, "of", cfg.NumTrials)
		}
	}

	return results, nil
}

// LabelShare is the fraction of trials that landed on one label.
type LabelShare struct {
	Label    string
	Count    int
	Fraction float64
}

// MonteCarloStats tallies labels, most frequent first. Failed trials count
// under "error".
func MonteCarloStats(results []MonteCarloResult) []LabelShare {
	counts := make(map[string]int)
	for _, r := range results {
		if r.Err != nil {
			counts["error"]++
			continue
		}
		counts[string(r.Label)]++
	}

	shares := make([]LabelShare, 0, len(counts))
	for label, n := range counts {
		shares = append(shares, LabelShare{Label: label, Count: n, Fraction: float64(n) / float64(len(results))})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Label < shares[j].Label
	})
	return shares
}
