package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/geodesim/internal/automation"
	"github.com/san-kum/geodesim/internal/optim"
	"github.com/san-kum/geodesim/internal/sweep"
	"github.com/san-kum/geodesim/internal/viz"
)

func newSweepCmd() *cobra.Command {
	var (
		of      orbitFlags
		grid    sweep.Grid
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "classify a grid of (L, v_r0) initial conditions",
		Long:  "Integrates every cell of an (L, v_r0) grid at the configured r0 in parallel and draws the map of orbit families.",
		Example: `  geodesim sweep --l-min 3 --l-max 4.5 --l-n 60 --vr-min -0.3 --vr-max 0.3 --vr-n 20 --time 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := of.build(cmd)
			if err != nil {
				return err
			}

			slog.Info("sweep", "cells", grid.L.N*grid.VR.N, "workers", grid.Workers)
			m, err := sweep.Run(cmd.Context(), cfg, grid)
			if err != nil {
				return err
			}
			fmt.Print(viz.SweepReport(m, theme))

			if csvPath == "" {
				return nil
			}
			if err := writeFile(csvPath, func(f *os.File) error { return m.WriteCSV(f) }); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", csvPath)
			return nil
		},
	}
	of.register(cmd.Flags())
	fs := cmd.Flags()
	fs.Float64Var(&grid.L.Min, "l-min", 3.0, "smallest L")
	fs.Float64Var(&grid.L.Max, "l-max", 4.5, "largest L")
	fs.IntVar(&grid.L.N, "l-n", 40, "number of L values")
	fs.Float64Var(&grid.VR.Min, "vr-min", -0.3, "smallest v_r0")
	fs.Float64Var(&grid.VR.Max, "vr-max", 0.3, "largest v_r0")
	fs.IntVar(&grid.VR.N, "vr-n", 15, "number of v_r0 values")
	fs.IntVar(&grid.Workers, "workers", 0, "parallel runs (0 = GOMAXPROCS)")
	fs.StringVar(&csvPath, "csv", "", "also write every cell to a CSV file")
	return cmd
}

func newScenarioCmd() *cobra.Command {
	var (
		of       orbitFlags
		dumpPath string
	)

	cmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a YAML list of orbits and check their labels",
		Long:  "Runs each step of the scenario in order. Without a file the four demonstration orbits are used. Exits non-zero when a step fails or is mislabelled.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := automation.DefaultScenario()
			if len(args) == 1 {
				loaded, err := automation.LoadScenario(args[0])
				if err != nil {
					return err
				}
				sc = loaded
			}
			if dumpPath != "" {
				return automation.SaveScenario(dumpPath, sc)
			}

			base, err := of.build(cmd)
			if err != nil {
				return err
			}
			results, err := automation.RunScenario(cmd.Context(), sc, base)
			fmt.Print(viz.ScenarioReport(sc.Name, results, theme))
			if err != nil {
				return err
			}
			if n := automation.Mismatches(results); n > 0 {
				return fmt.Errorf("%d step(s) did not match", n)
			}
			return nil
		},
	}
	of.register(cmd.Flags())
	cmd.Flags().StringVar(&dumpPath, "dump", "", "write the scenario to a YAML file instead of running it")
	return cmd
}

func newEnsembleCmd() *cobra.Command {
	var (
		of orbitFlags
		mc automation.MonteCarloConfig
	)

	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "perturb an orbit at random and tally the labels",
		Long:  "Draws L, v_r0 and r0 uniformly within the given spreads around the configured orbit and reports how often each family occurs.",
		Example: `  geodesim ensemble --preset precessing --dl 0.002 --trials 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := of.build(cmd)
			if err != nil {
				return err
			}
			mc.Base = cfg

			results, err := automation.RunMonteCarlo(cmd.Context(), &mc)
			if err != nil {
				return err
			}
			fmt.Print(viz.EnsembleReport(automation.MonteCarloStats(results), theme))
			return nil
		},
	}
	of.register(cmd.Flags())
	fs := cmd.Flags()
	fs.Float64Var(&mc.DeltaL, "dl", 0.01, "spread of L")
	fs.Float64Var(&mc.DeltaVR, "dvr", 0, "spread of v_r0")
	fs.Float64Var(&mc.DeltaR, "dr", 0, "spread of r0")
	fs.IntVar(&mc.NumTrials, "trials", 20, "number of trials")
	fs.Int64Var(&mc.Seed, "seed", 1, "random seed")
	return cmd
}

func newCriticalCmd() *cobra.Command {
	var (
		of     orbitFlags
		lo, hi float64
		search optim.CriticalSearch
	)

	cmd := &cobra.Command{
		Use:   "critical",
		Short: "find the angular momentum that separates plunging from bound orbits",
		Long:  "Keeps r0 and v_r0 fixed, brackets the first L in [--l-min, --l-max] above which the orbit no longer plunges, and refines it by bisection.",
		Example: `  geodesim critical --preset plunging --l-min 3.4 --l-max 3.7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := of.build(cmd)
			if err != nil {
				return err
			}
			search.Base = cfg

			res, err := search.Search(cmd.Context(), lo, hi)
			if err != nil {
				return err
			}
			fmt.Printf("critical L = %.6f (plunges at %.6f, bound at %.6f, %d runs)\n",
				res.L(), res.Plunging, res.Bound, res.Runs)
			return nil
		},
	}
	of.register(cmd.Flags())
	def := optim.NewCriticalSearch(nil)
	fs := cmd.Flags()
	fs.Float64Var(&lo, "l-min", 3.0, "lower end of the scan")
	fs.Float64Var(&hi, "l-max", 4.5, "upper end of the scan")
	fs.IntVar(&search.ScanSteps, "scan", def.ScanSteps, "grid steps used to bracket the transition")
	fs.Float64Var(&search.Tolerance, "tol", def.Tolerance, "final bracket width")
	return cmd
}
