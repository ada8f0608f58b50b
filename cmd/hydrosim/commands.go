package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/hydrosim/internal/api"
	"github.com/san-kum/hydrosim/internal/config"
	"github.com/san-kum/hydrosim/internal/experiment"
	svgexport "github.com/san-kum/hydrosim/internal/export"
	"github.com/san-kum/hydrosim/internal/kinetics"
	"github.com/san-kum/hydrosim/internal/optim"
	"github.com/san-kum/hydrosim/internal/storage"
	"github.com/san-kum/hydrosim/internal/viz"
)

// resolveConfig layers the config file, the preset and the flags the user
// set, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Conditions = p.Conditions
	}

	flags := cmd.Flags()
	if flags.Changed("temperature") {
		t, err := kinetics.ParseTemperature(temperature)
		if err != nil {
			return nil, err
		}
		cfg.Conditions.Temperature = t
	}
	if flags.Changed("solid-loading") {
		cfg.Conditions.SolidLoading = solidLoading
	}
	if flags.Changed("cellulose-fraction") {
		cfg.Conditions.CelluloseFraction = celluloseFraction
	}
	if flags.Changed("hemicellulose-fraction") {
		cfg.Conditions.HemicelluloseFraction = hemicelluloseFraction
	}
	if flags.Changed("time") {
		cfg.Conditions.TimeFinal = timeFinal
	}

	if flags.Changed("integrator") {
		cfg.Solver.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Solver.Dt = dt
	}
	if flags.Changed("samples") {
		cfg.Solver.Samples = samples
	}
	if flags.Changed("rtol") {
		cfg.Solver.RelTol = rtol
	}
	if flags.Changed("atol") {
		cfg.Solver.AbsTol = atol
	}
	if flags.Changed("sequential") {
		cfg.Solver.Parallel = !sequential
	}
	if flags.Changed("strict") {
		cfg.Solver.StrictComposition = strict
	}

	if flags.Changed("data") {
		cfg.Storage.DataDir = dataDir
	}
	if flags.Changed("backend") {
		cfg.Storage.Backend = backend
	}

	return cfg, cfg.Validate()
}

func openRepository(cmd *cobra.Command) (storage.Repository, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.Storage.Backend, cfg.Storage.DataDir)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("simulation finished", "elapsed", elapsed, "integrator", cfg.Solver.Integrator)

	runID, err := saveRun(cfg, result)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		// stdout carries only the document
		if runID != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "run id: %s\n", runID)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(out, viz.Summary(result))
	if runID != "" {
		fmt.Fprintf(out, "run id: %s\n", runID)
	}
	fmt.Fprintf(out, "completed in %v\n", elapsed.Round(time.Microsecond))

	if showPlot {
		fmt.Fprintln(out)
		fmt.Fprintln(out, viz.PlotResult(result, viz.DefaultPlotOptions))
	}
	return nil
}

// saveRun stores the result unless --no-save was given and returns its ID.
func saveRun(cfg *config.Config, result *kinetics.Result) (string, error) {
	if noSave {
		return "", nil
	}
	repo, err := storage.Open(cfg.Storage.Backend, cfg.Storage.DataDir)
	if err != nil {
		return "", err
	}
	defer repo.Close()

	return repo.Save(storage.RunMetadata{
		Conditions: cfg.Conditions,
		Integrator: cfg.Solver.Integrator,
	}, result)
}

func showRates(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for i, p := range kinetics.Polymers {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, viz.RatesTable(p))
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	names := args
	if len(names) == 0 {
		names = registry.ListIntegrators()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "comparing integrators at %g°C over %g min (dt=%g, rtol=%g, atol=%g)\n\n",
		cfg.Conditions.Temperature, cfg.Conditions.TimeFinal, cfg.Solver.Dt, cfg.Solver.RelTol, cfg.Solver.AbsTol)

	results := experiment.Compare(cmd.Context(), cfg, registry, names, logger)
	fmt.Fprintln(out, viz.CompareTable(results))
	return nil
}

// parseParam parses "name=v1,v2,...".
func parseParam(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("invalid --param %q (want name=v1,v2,...)", s)
	}

	var values []float64
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		var v float64
		var err error
		if name == optim.ParamTemperature {
			v, err = kinetics.ParseTemperature(field)
		} else {
			v, err = strconv.ParseFloat(field, 64)
		}
		if err != nil {
			return "", nil, fmt.Errorf("invalid value %q for %s: %w", field, name, err)
		}
		values = append(values, v)
	}
	return strings.TrimSpace(name), values, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var goal optim.Goal
	switch sweepGoal {
	case "min":
		goal = optim.Minimize
	case "max":
		goal = optim.Maximize
	default:
		return fmt.Errorf("invalid --goal %q (want min or max)", sweepGoal)
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, p := range sweepParams {
		name, values, err := parseParam(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	search := optim.NewGridSearch(names, ranges)
	search.Workers = sweepWorkers
	outcome, err := search.Search(cmd.Context(), exp, cfg.Conditions, sweepMetric, goal)
	if outcome == nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+sweepMetric)
	for _, point := range outcome.Points {
		cells := make([]string, 0, len(names)+1)
		for _, name := range names {
			cells = append(cells, strconv.FormatFloat(point.Params[name], 'g', -1, 64))
		}
		if point.Err != nil {
			cells = append(cells, "skipped: "+point.Err.Error())
		} else {
			cells = append(cells, fmt.Sprintf("%.6g", point.Value))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nbest %s = %.6g at", sweepMetric, outcome.BestValue)
	for _, name := range names {
		fmt.Fprintf(out, " %s=%g", name, outcome.Best[name])
	}
	fmt.Fprintln(out)
	if outcome.Failed > 0 {
		fmt.Fprintf(out, "%d of %d points skipped\n", outcome.Failed, len(outcome.Points))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	repo, err := openRepository(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	runs, err := repo.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tTEMP\tLOADING\tHORIZON\tINTEG\tCELL%\tHEMI%")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%g°C\t%g g/L\t%g min\t%s\t%.2f\t%.2f\n",
			run.ID,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Conditions.Temperature,
			run.Conditions.SolidLoading,
			run.Conditions.TimeFinal,
			run.Integrator,
			run.CelluloseDegradedPercent,
			run.HemicelluloseDegradedPercent,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	repo, err := openRepository(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	meta, err := repo.Load(runID)
	if err != nil {
		return err
	}
	header, _, rows, err := repo.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "conditions: %g°C, %g g/L, %g min\n", meta.Conditions.Temperature, meta.Conditions.SolidLoading, meta.Conditions.TimeFinal)
	fmt.Fprintf(out, "samples: %d\n\n", len(rows))

	graph, err := viz.PlotColumns(header, rows, plotColumns, viz.DefaultPlotOptions)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(header[1:], ", "))
	}
	fmt.Fprintln(out, graph)
	return nil
}

// outputWriter returns stdout or the --output file.
func outputWriter(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outputFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return export(cmd, args[0], storage.ExportCSV)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return export(cmd, args[0], storage.ExportJSON)
}

func export(cmd *cobra.Command, runID string, write func(io.Writer, storage.Repository, string) error) error {
	repo, err := openRepository(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	w, closeOut, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	if err := write(w, repo, runID); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}
	if outputFile != "" {
		logger.Info("exported run", "id", runID, "file", outputFile)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	return export(cmd, args[0], func(w io.Writer, repo storage.Repository, id string) error {
		meta, err := repo.Load(id)
		if err != nil {
			return err
		}
		header, times, rows, err := repo.LoadSeries(id)
		if err != nil {
			return err
		}
		series, err := svgexport.SelectColumns(header, rows, plotColumns)
		if err != nil {
			return fmt.Errorf("%w (available: %s)", err, strings.Join(header[1:], ", "))
		}

		opts := svgexport.DefaultChartOptions
		opts.Title = fmt.Sprintf("%s: %g°C, %g g/L", meta.ID, meta.Conditions.Temperature, meta.Conditions.SolidLoading)
		return svgexport.WriteSVG(w, times, series, opts)
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tTEMP\tLOADING\tCELLULOSE\tHEMICELLULOSE\tHORIZON")
	for _, name := range config.ListPresets() {
		c := config.Presets[name]
		fmt.Fprintf(w, "%s\t%g°C\t%g g/L\t%g\t%g\t%g min\n",
			name, c.Temperature, c.SolidLoading, c.CelluloseFraction, c.HemicelluloseFraction, c.TimeFinal)
	}
	return w.Flush()
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	repo, err := storage.Open(cfg.Storage.Backend, cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer repo.Close()

	handler := api.NewHandler(exp.Engine(), repo, api.Config{
		Defaults:     cfg.Conditions,
		Integrator:   cfg.Solver.Integrator,
		MaxTimeFinal: maxHorizon,
		Timeout:      simTimeout,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.NewServer(addr, handler).Run(ctx)
}
