package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/geodesim/internal/analysis"
	"github.com/san-kum/geodesim/internal/export"
	"github.com/san-kum/geodesim/internal/physics"
	"github.com/san-kum/geodesim/internal/storage"
	"github.com/san-kum/geodesim/internal/viz"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tL\tR0\tVR0\tINTEG\tTERMINATION\tLABEL")
			for _, run := range runs {
				o := run.Config.Orbit
				fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%s\t%s\t%s\n",
					run.ID,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					o.AngularMomentum, o.Radius, o.RadialVelocity,
					run.Config.Integrator,
					run.Termination,
					run.Classification.Label,
				)
			}
			return w.Flush()
		},
	}
}

func loadRun(runID string) (*storage.RunMetadata, *physics.Trajectory, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if tr.Len() == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, tr, nil
}

func newPlotCmd() *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "draw a stored orbit in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, tr, err := loadRun(args[0])
			if err != nil {
				return err
			}
			model := meta.Config.Model()

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("label: %s (%s)\n", meta.Classification.Label, meta.Classification.Reason)
			fmt.Printf("samples: %d\n\n", tr.Len())

			fmt.Print(viz.OrbitASCII(tr, model.HorizonRadius(), width, height))
			fmt.Println()
			fmt.Println(viz.RadiusChart(tr, 2*width, height/2))
			fmt.Println()
			fmt.Println(viz.PotentialChart(model, model.Energy(tr.State(0)),
				1.05*model.HorizonRadius(), 1.2*meta.Classification.RMax, 2*width, height/2))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 40, "orbit width in cells")
	cmd.Flags().IntVar(&height, "height", 20, "orbit height in cells")
	return cmd
}

func newPhaseCmd() *cobra.Command {
	var periapses bool

	cmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait (r, v_r) of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, tr, err := loadRun(args[0])
			if err != nil {
				return err
			}

			portrait := analysis.GeneratePhasePortrait(tr)
			if periapses {
				portrait = analysis.PeriapsisSection(meta.Classification)
			}
			if portrait == nil || len(portrait.Points) == 0 {
				return fmt.Errorf("nothing to draw for run %s", meta.ID)
			}

			fmt.Printf("phase portrait: %s vs %s\n\n", portrait.YLabel, portrait.XLabel)
			fmt.Print(portrait.ASCII(70, 24))
			return nil
		},
	}
	cmd.Flags().BoolVar(&periapses, "periapses", false, "plot periapsis positions in the plane instead")
	return cmd
}

func newSpectrumCmd() *cobra.Command {
	var maxFreq float64

	cmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "amplitude spectrum of r(τ) for a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, tr, err := loadRun(args[0])
			if err != nil {
				return err
			}
			sp, err := analysis.RadialSpectrum(tr)
			if err != nil {
				return err
			}

			fmt.Println(viz.SpectrumChart(sp, maxFreq, 70, 12))
			fmt.Println()
			if p := sp.DominantPeriod(); p > 0 {
				fmt.Printf("dominant radial period: %.6g\n", p)
			} else {
				fmt.Println("no radial oscillation")
			}
			if meta.Classification.RadialPeriod > 0 {
				fmt.Printf("turning-point period:   %.6g\n", meta.Classification.RadialPeriod)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&maxFreq, "max-freq", 0.05, "highest frequency shown (0 = all)")
	return cmd
}

var exportFormats = []string{"json", "csv", "svg", "png", "radius-svg", "radius-png"}

func newExportCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run (" + strings.Join(exportFormats, ", ") + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, tr, err := loadRun(args[0])
			if err != nil {
				return err
			}

			write, err := exporter(format, meta, tr)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return write(os.Stdout)
			}
			if err := writeFile(output, func(f *os.File) error { return write(f) }); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func exporter(format string, meta *storage.RunMetadata, tr *physics.Trajectory) (func(io.Writer) error, error) {
	horizon := meta.Config.Model().HorizonRadius()
	c := meta.Classification
	switch format {
	case "json":
		return func(w io.Writer) error { return storage.ExportStoredJSON(w, meta, tr) }, nil
	case "csv":
		return func(w io.Writer) error { return storage.WriteTrajectoryCSV(w, tr) }, nil
	case "svg":
		return func(w io.Writer) error { return export.OrbitSVG(w, tr, horizon, c, 800) }, nil
	case "radius-svg":
		return func(w io.Writer) error { return export.RadiusSVG(w, tr, horizon, c, 1000, 400) }, nil
	case "png":
		return func(w io.Writer) error { return export.OrbitPNG(w, tr, horizon, c) }, nil
	case "radius-png":
		return func(w io.Writer) error { return export.RadiusPNG(w, tr, horizon, c) }, nil
	}
	return nil, fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(exportFormats, ", "))
}

// writeFile creates path (and its directory) and closes it after fn.
func writeFile(path string, fn func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return err
	}
	return f.Close()
}
