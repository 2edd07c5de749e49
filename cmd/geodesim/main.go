package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/geodesim/internal/viz"
)

// Global settings come from flags, then GEODESIM_* environment variables.
var (
	dataDir  string
	theme    viz.Theme
	settings = viper.New()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "geodesim",
		Short:         "timelike geodesics around a Schwarzschild black hole",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initSettings()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("data", ".geodesim", "run store directory")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.String("theme", "cyberpunk", "report theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	for _, name := range []string{"data", "log-level", "theme"} {
		_ = settings.BindPFlag(name, pf.Lookup(name))
	}
	settings.SetEnvPrefix("GEODESIM")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()

	rootCmd.AddCommand(
		newRunCmd(),
		newCompareCmd(),
		newPresetsCmd(),
		newPotentialCmd(),
		newSweepCmd(),
		newScenarioCmd(),
		newEnsembleCmd(),
		newCriticalCmd(),
		newListCmd(),
		newPlotCmd(),
		newPhaseCmd(),
		newSpectrumCmd(),
		newExportCmd(),
	)
	return rootCmd
}

func initSettings() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.GetString("log-level"))); err != nil {
		return fmt.Errorf("bad log level %q: %w", settings.GetString("log-level"), err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	dataDir = settings.GetString("data")
	theme = viz.GetTheme(settings.GetString("theme"))
	return nil
}
