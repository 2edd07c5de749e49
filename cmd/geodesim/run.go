package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/dynamo"
	"github.com/san-kum/geodesim/internal/experiment"
	"github.com/san-kum/geodesim/internal/export"
	"github.com/san-kum/geodesim/internal/physics"
	"github.com/san-kum/geodesim/internal/storage"
	"github.com/san-kum/geodesim/internal/viz"
)

// orbitFlags are the initial-condition and solver flags shared by the
// commands that integrate orbits. Precedence is flags, then config file,
// then preset, then defaults.
type orbitFlags struct {
	configFile string
	preset     string
	circular   bool

	mass, l, vr, r0, phi0 float64

	integrator string
	duration   float64
	dt, maxDt  float64
	sampleDt   float64
	relTol     float64
	absTol     float64
	maxSteps   int

	captureRadius, escapeRadius float64
}

func (f *orbitFlags) register(fs *pflag.FlagSet) {
	def := config.DefaultConfig()
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.preset, "preset", "", "start from a preset ("+strings.Join(config.ListPresets(), ", ")+")")
	fs.BoolVar(&f.circular, "circular", false, "pick L for a circular orbit at r0 and set v_r0 = 0")

	fs.Float64Var(&f.mass, "mass", def.Orbit.Mass, "black hole mass M")
	fs.Float64VarP(&f.l, "angular-momentum", "L", def.Orbit.AngularMomentum, "specific angular momentum L")
	fs.Float64Var(&f.vr, "vr", def.Orbit.RadialVelocity, "initial radial velocity dr/dτ")
	fs.Float64Var(&f.r0, "r0", def.Orbit.Radius, "initial radius")
	fs.Float64Var(&f.phi0, "phi0", def.Orbit.Phi, "initial azimuth")

	fs.StringVar(&f.integrator, "integrator", def.Integrator, "integrator (rk45, rk4, euler)")
	fs.Float64Var(&f.duration, "time", def.Solver.Duration, "proper time span")
	fs.Float64Var(&f.dt, "dt", def.Solver.Dt, "initial step")
	fs.Float64Var(&f.maxDt, "max-dt", def.Solver.MaxDt, "largest step")
	fs.Float64Var(&f.sampleDt, "sample-dt", def.Solver.SampleDt, "output spacing in τ (0 keeps every step)")
	fs.Float64Var(&f.relTol, "rtol", def.Solver.RelTol, "relative tolerance")
	fs.Float64Var(&f.absTol, "atol", def.Solver.AbsTol, "absolute tolerance")
	fs.IntVar(&f.maxSteps, "max-steps", def.Solver.MaxSteps, "step budget")

	fs.Float64Var(&f.captureRadius, "capture-radius", 0, "capture radius (0 = horizon)")
	fs.Float64Var(&f.escapeRadius, "escape-radius", 0, "escape radius (0 = max(100M, 2·r0))")
}

func (f *orbitFlags) build(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.preset != "" {
		p, ok := config.Presets[f.preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (available: %s): %w",
				f.preset, strings.Join(config.ListPresets(), ", "), dynamo.ErrInvalidConfig)
		}
		cfg.ApplyPreset(p)
	}
	if f.configFile != "" {
		loaded, err := config.LoadOver(f.configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	setF := func(name string, dst *float64, v float64) {
		if changed(name) {
			*dst = v
		}
	}
	setF("mass", &cfg.Orbit.Mass, f.mass)
	setF("angular-momentum", &cfg.Orbit.AngularMomentum, f.l)
	setF("vr", &cfg.Orbit.RadialVelocity, f.vr)
	setF("r0", &cfg.Orbit.Radius, f.r0)
	setF("phi0", &cfg.Orbit.Phi, f.phi0)
	setF("time", &cfg.Solver.Duration, f.duration)
	setF("dt", &cfg.Solver.Dt, f.dt)
	setF("max-dt", &cfg.Solver.MaxDt, f.maxDt)
	setF("sample-dt", &cfg.Solver.SampleDt, f.sampleDt)
	setF("rtol", &cfg.Solver.RelTol, f.relTol)
	setF("atol", &cfg.Solver.AbsTol, f.absTol)
	setF("capture-radius", &cfg.Events.CaptureRadius, f.captureRadius)
	setF("escape-radius", &cfg.Events.EscapeRadius, f.escapeRadius)
	if changed("integrator") {
		cfg.Integrator = f.integrator
	}
	if changed("max-steps") {
		cfg.Solver.MaxSteps = f.maxSteps
	}

	if f.circular {
		l, err := physics.CircularAngularMomentum(cfg.Orbit.Mass, cfg.Orbit.Radius)
		if err != nil {
			return nil, err
		}
		cfg.Orbit.AngularMomentum = l
		cfg.Orbit.RadialVelocity = 0
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	var (
		of       orbitFlags
		noSave   bool
		showPlot bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "integrate one orbit and classify it",
		Example: `  geodesim run --preset precessing
  geodesim run -L 4 --r0 13 --time 3000
  geodesim run --circular --r0 8 --plot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := of.build(cmd)
			if err != nil {
				return err
			}

			out, err := experiment.New(cfg).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s error: %w", dynamo.KindOf(err), err)
			}

			if asJSON {
				return storage.ExportJSON(os.Stdout, out)
			}

			fmt.Print(viz.Report(out, theme))
			if showPlot {
				fmt.Println()
				fmt.Print(viz.OrbitASCII(out.Trajectory, out.Model.HorizonRadius(), 60, 30))
				fmt.Println()
				fmt.Println(viz.RadiusChart(out.Trajectory, 70, 12))
			}

			if noSave {
				return nil
			}
			runID, err := storage.New(dataDir).Save(out)
			if err != nil {
				return err
			}
			fmt.Printf("\nrun id: %s\n", runID)
			return nil
		},
	}
	of.register(cmd.Flags())
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().BoolVar(&showPlot, "plot", false, "draw the orbit and r(τ) after the report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON instead of the report")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var of orbitFlags

	cmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "integrate the same orbit with several integrators",
		Long:  "Runs one orbit per integrator (all registered ones when none are named) and tabulates effort, constraint drift and label.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := of.build(cmd)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = experiment.NewRegistry().ListIntegrators()
			}

			outcomes, errs := experiment.Compare(cmd.Context(), cfg, names)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tREJECTED\tRESIDUAL\tTERMINATION\tLABEL\tELAPSED")
			var canceled error
			for i, name := range names {
				if errs[i] != nil && dynamo.KindOf(errs[i]) == dynamo.KindCanceled {
					canceled = errs[i]
					break
				}
				if errs[i] != nil || outcomes[i] == nil {
					fmt.Fprintf(w, "%s\t-\t-\t-\t%s error\t%v\t-\n", name, dynamo.KindOf(errs[i]), errs[i])
					continue
				}
				o := outcomes[i]
				fmt.Fprintf(w, "%s\t%d\t%d\t%.3e\t%s\t%s\t%s\n",
					name, o.Result.StepsTaken, o.Result.StepsRejected, o.ConstraintResidual,
					o.Result.Termination, o.Classification.Label, o.Elapsed.Round(time.Millisecond))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return canceled
		},
	}
	of.register(cmd.Flags())
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list the demonstration orbits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tL\tR0\tVR0\tTIME\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%s\n",
					name, p.Orbit.AngularMomentum, p.Orbit.Radius, p.Orbit.RadialVelocity, p.Duration, p.Description)
			}
			return w.Flush()
		},
	}
}

func newPotentialCmd() *cobra.Command {
	var (
		of         orbitFlags
		rMin, rMax float64
		pngPath    string
	)

	cmd := &cobra.Command{
		Use:   "potential",
		Short: "show V_eff(r) for L with the circular radii and the level E² of the initial state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := of.build(cmd)
			if err != nil {
				return err
			}
			model := cfg.Model()
			x0, err := model.InitialState(cfg.Orbit.Radius, cfg.Orbit.RadialVelocity, cfg.Orbit.Phi)
			if err != nil {
				return err
			}
			energy := model.Energy(x0)

			lo := rMin
			if lo <= 0 {
				lo = 1.05 * model.HorizonRadius()
			}
			hi := rMax
			if hi <= 0 {
				hi = math.Max(3*cfg.Orbit.Radius, 20*model.M)
			}

			fmt.Println(viz.PotentialChart(model, energy, lo, hi, 70, 15))
			fmt.Println()
			fmt.Printf("E² = %.10g\n", energy)
			fmt.Printf("horizon r = %g, ISCO r = %g\n", model.HorizonRadius(), model.ISCO())
			if stable, unstable, ok := model.CircularOrbits(); ok {
				fmt.Printf("circular orbits: stable r = %.6g (V = %.8g), unstable r = %.6g (V = %.8g)\n",
					stable, model.Potential(stable), unstable, model.Potential(unstable))
				if energy > model.Potential(unstable) && cfg.Orbit.RadialVelocity <= 0 {
					fmt.Println("E² is above the potential peak: an inbound particle plunges")
				}
			} else {
				fmt.Printf("no circular orbits: L² < 12M² (L < %.6g)\n", math.Sqrt(12)*model.M)
			}

			if pngPath == "" {
				return nil
			}
			return writeFile(pngPath, func(f *os.File) error {
				return export.PotentialPNG(f, model, energy, lo, hi)
			})
		},
	}
	of.register(cmd.Flags())
	cmd.Flags().Float64Var(&rMin, "r-min", 0, "left edge of the plot (0 = just outside the horizon)")
	cmd.Flags().Float64Var(&rMax, "r-max", 0, "right edge of the plot (0 = max(3·r0, 20M))")
	cmd.Flags().StringVar(&pngPath, "png", "", "also write the curve to a PNG file")
	return cmd
}
