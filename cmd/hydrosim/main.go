package main

import (
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	backend    string
	configFile string
	logLevel   string
	logFile    string

	// simulation inputs
	temperature           string
	solidLoading          float64
	celluloseFraction     float64
	hemicelluloseFraction float64
	timeFinal             float64

	// solver
	integrator string
	dt         float64
	samples    int
	rtol       float64
	atol       float64
	sequential bool
	strict     bool

	preset   string
	noSave   bool
	showPlot bool
	asJSON   bool

	// sweep
	sweepParams  []string
	sweepMetric  string
	sweepGoal    string
	sweepWorkers int

	plotColumns []string
	outputFile  string
	addr        string
	maxHorizon  float64
	simTimeout  time.Duration

	logger = slog.Default()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flags are bound to the package-level
// variables, so building a tree also resets them to their defaults.
func newRootCmd() *cobra.Command {
	var closeLog func() error

	rootCmd := &cobra.Command{
		Use:          "hydrosim",
		Short:        "hydrothermal pretreatment kinetics of cellulose and hemicellulose",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, closer, err := initLogger(logLevel, logFile)
			if err != nil {
				return err
			}
			logger, closeLog = l, closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".hydrosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "fs", "run storage backend (fs, sqlite)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one pretreatment and store the run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConditionFlags(runCmd)
	addSolverFlags(runCmd)
	runCmd.Flags().StringVar(&preset, "preset", "", "start from a named preset")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the trajectories")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON (the run is still stored unless --no-save)")

	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "show the calibrated rate constants",
		Args:  cobra.NoArgs,
		RunE:  showRates,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [integrator ...]",
		Short: "compare integrators against the closed-form solution",
		RunE:  compareIntegrators,
	}
	addConditionFlags(compareCmd)
	addSolverFlags(compareCmd)
	compareCmd.Flags().StringVar(&preset, "preset", "", "start from a named preset")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over conditions",
		Example: "  hydrosim sweep --param temperature=180,195,210 --param time_final=10,20,40 " +
			"--metric hemicellulose.xos --goal max",
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	addConditionFlags(sweepCmd)
	addSolverFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&preset, "preset", "", "start from a named preset")
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter values as name=v1,v2,...")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "hemicellulose_degraded_percent", "result metric to optimize")
	sweepCmd.Flags().StringVar(&sweepGoal, "goal", "max", "min or max")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", runtime.NumCPU(), "points simulated concurrently")
	sweepCmd.MarkFlagRequired("param")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotColumns, "columns",
		[]string{"cellulose.cellulose", "hemicellulose.hemicellulose"}, "series to plot")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export run trajectories as an SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringSliceVar(&plotColumns, "columns", []string{
		"hemicellulose.hemicellulose", "hemicellulose.xos", "hemicellulose.monomers",
		"hemicellulose.furfural", "hemicellulose.degraded",
	}, "series to draw")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	addSolverFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().Float64Var(&maxHorizon, "max-time", 10000, "largest time_final a request may ask for (min), 0 for no limit")
	serveCmd.Flags().DurationVar(&simTimeout, "timeout", 30*time.Second, "time limit of one simulation, 0 for none")

	rootCmd.AddCommand(runCmd, ratesCmd, compareCmd, sweepCmd, listCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, serveCmd)

	return rootCmd
}

func addConditionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&temperature, "temperature", "T", "195", "temperature in °C (180, 195 or 210)")
	cmd.Flags().Float64Var(&solidLoading, "solid-loading", 100, "solid loading (g/L)")
	cmd.Flags().Float64Var(&celluloseFraction, "cellulose-fraction", 0.348, "cellulose mass fraction")
	cmd.Flags().Float64Var(&hemicelluloseFraction, "hemicellulose-fraction", 0.230, "hemicellulose mass fraction")
	cmd.Flags().Float64Var(&timeFinal, "time", 40, "reaction time (min)")
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&integrator, "integrator", "rk45", "integrator (euler, rk4, rk45)")
	cmd.Flags().Float64Var(&dt, "dt", 0.01, "step for fixed-step integrators (min)")
	cmd.Flags().IntVar(&samples, "samples", 200, "number of output samples")
	cmd.Flags().Float64Var(&rtol, "rtol", 1e-6, "relative tolerance of adaptive integrators")
	cmd.Flags().Float64Var(&atol, "atol", 1e-8, "absolute tolerance of adaptive integrators")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "integrate the two polymers one after the other")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject compositions whose fractions sum above 1")
}
