package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/physics"
)

const (
	DefaultMass       = 1.0
	DefaultIntegrator = "rk45"
	DefaultDt         = 0.01
	DefaultMaxDt      = 0.1
	DefaultMinDt      = 1e-12
	DefaultDuration   = 1000.0
	DefaultSampleDt   = 0.1
	DefaultAbsTol     = 1e-12
	DefaultRelTol     = 1e-10
	DefaultMaxSteps   = 5_000_000
)

type Config struct {
	Orbit      OrbitConfig      `yaml:"orbit" json:"orbit"`
	Integrator string           `yaml:"integrator" json:"integrator"`
	Solver     SolverConfig     `yaml:"solver" json:"solver"`
	Events     EventsConfig     `yaml:"events" json:"events"`
	Classifier ClassifierConfig `yaml:"classifier" json:"classifier"`
}

// OrbitConfig is the initial condition in geometric units.
type OrbitConfig struct {
	Mass            float64 `yaml:"mass" json:"mass"`
	AngularMomentum float64 `yaml:"angular_momentum" json:"angular_momentum"`
	RadialVelocity  float64 `yaml:"radial_velocity" json:"radial_velocity"`
	Radius          float64 `yaml:"radius" json:"radius"`
	Phi             float64 `yaml:"phi" json:"phi"`
}

type SolverConfig struct {
	Duration float64 `yaml:"duration" json:"duration"`
	Dt       float64 `yaml:"dt" json:"dt"`
	MaxDt    float64 `yaml:"max_dt" json:"max_dt"`
	MinDt    float64 `yaml:"min_dt" json:"min_dt"`
	AbsTol   float64 `yaml:"abs_tol" json:"abs_tol"`
	RelTol   float64 `yaml:"rel_tol" json:"rel_tol"`
	SampleDt float64 `yaml:"sample_dt" json:"sample_dt"`
	MaxSteps int     `yaml:"max_steps" json:"max_steps"`
}

// EventsConfig sets the early-termination radii. Zero picks the default:
// the horizon for capture, max(100M, 2·r0) for escape.
type EventsConfig struct {
	CaptureRadius float64 `yaml:"capture_radius" json:"capture_radius"`
	EscapeRadius  float64 `yaml:"escape_radius" json:"escape_radius"`
}

type ClassifierConfig struct {
	CircularTolerance float64 `yaml:"circular_tolerance" json:"circular_tolerance"`
	ExtremumTolerance float64 `yaml:"extremum_tolerance" json:"extremum_tolerance"`
}

func DefaultConfig() *Config {
	return &Config{
		Orbit: OrbitConfig{
			Mass:            DefaultMass,
			AngularMomentum: 3.780,
			Radius:          10,
		},
		Integrator: DefaultIntegrator,
		Solver: SolverConfig{
			Duration: DefaultDuration,
			Dt:       DefaultDt,
			MaxDt:    DefaultMaxDt,
			MinDt:    DefaultMinDt,
			AbsTol:   DefaultAbsTol,
			RelTol:   DefaultRelTol,
			SampleDt: DefaultSampleDt,
			MaxSteps: DefaultMaxSteps,
		},
		Classifier: ClassifierConfig{
			CircularTolerance: analysis.DefaultCircularTolerance,
			ExtremumTolerance: analysis.DefaultExtremumTolerance,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base, so keys missing from the
// file keep the base values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate checks solver and classifier settings. The initial radius is
// checked against the horizon by the model itself, since that is a domain
// error rather than a bad setting.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("config: "+format+": %w", append(args, dynamo.ErrInvalidConfig)...)
	}

	s := c.Solver
	switch {
	case !finitePositive(s.Duration):
		return bad("solver.duration must be positive, got %g", s.Duration)
	case !finitePositive(s.Dt):
		return bad("solver.dt must be positive, got %g", s.Dt)
	case !finitePositive(s.MaxDt) || !finitePositive(s.MinDt) || s.MinDt >= s.MaxDt:
		return bad("need 0 < solver.min_dt < solver.max_dt, got %g and %g", s.MinDt, s.MaxDt)
	case !finitePositive(s.RelTol) || s.AbsTol < 0 || math.IsNaN(s.AbsTol):
		return bad("tolerances must be positive, got abs=%g rel=%g", s.AbsTol, s.RelTol)
	case s.SampleDt < 0 || math.IsNaN(s.SampleDt):
		return bad("solver.sample_dt must not be negative, got %g", s.SampleDt)
	case s.MaxSteps <= 0:
		return bad("solver.max_steps must be positive, got %d", s.MaxSteps)
	case c.Events.CaptureRadius < 0 || c.Events.EscapeRadius < 0:
		return bad("event radii must not be negative")
	case c.Events.EscapeRadius > 0 && c.Events.EscapeRadius <= c.Events.CaptureRadius:
		return bad("events.escape_radius %g must exceed capture radius %g", c.Events.EscapeRadius, c.Events.CaptureRadius)
	case !finitePositive(c.Classifier.CircularTolerance) || !finitePositive(c.Classifier.ExtremumTolerance):
		return bad("classifier tolerances must be positive")
	case c.Integrator == "":
		return bad("integrator must be set")
	}
	return nil
}

// Model returns the immutable geodesic parameters of the orbit.
func (c *Config) Model() physics.Schwarzschild {
	return physics.New(c.Orbit.Mass, c.Orbit.AngularMomentum)
}

// SimConfig translates the solver section for the simulator.
func (c *Config) SimConfig() dynamo.Config {
	s := c.Solver
	return dynamo.Config{
		Dt:            s.Dt,
		Duration:      s.Duration,
		SampleDt:      s.SampleDt,
		Tolerance:     dynamo.Tolerance{Abs: s.AbsTol, Rel: s.RelTol},
		MaxDt:         s.MaxDt,
		MinDt:         s.MinDt,
		MaxSteps:      s.MaxSteps,
		Adaptive:      true,
		ValidateState: true,
	}
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
