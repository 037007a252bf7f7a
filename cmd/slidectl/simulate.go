package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/slidectl/internal/config"
	"github.com/san-kum/slidectl/internal/export"
	"github.com/san-kum/slidectl/internal/metrics"
	"github.com/san-kum/slidectl/internal/optim"
	"github.com/san-kum/slidectl/internal/routine"
	"github.com/san-kum/slidectl/internal/sim"
	"github.com/san-kum/slidectl/internal/slide"
	"github.com/san-kum/slidectl/internal/storage"
	"github.com/san-kum/slidectl/internal/telemetry"
	"github.com/san-kum/slidectl/internal/viz"
)

func loadRoutine(cfg *config.Config) (*routine.Routine, error) {
	if cfg.Routine == "" {
		return nil, nil
	}
	r, err := routine.Load(cfg.Routine)
	if err != nil {
		return nil, fmt.Errorf("failed to load routine: %w", err)
	}
	return r, nil
}

// buildSim assembles a simulator with the standard metrics and, when r is
// set, a routine driving the target.
func buildSim(cfg *config.Config, tuning *slide.Tuning, sink slide.Telemetry, r *routine.Routine) (*sim.Simulator, error) {
	s, err := sim.FromConfig(cfg, tuning, sink)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard(slide.Deadband) {
		s.AddMetric(m)
	}
	if r != nil {
		s.SetCommander(routine.NewPlayer(r))
	}
	return s, nil
}

func runName(cfg *config.Config, r *routine.Routine) string {
	switch {
	case r != nil:
		return r.Name
	case preset != "":
		return preset
	default:
		return fmt.Sprintf("step-%g", cfg.Target)
	}
}

func printMetrics(m map[string]float64) {
	for _, name := range slices.Sorted(maps.Keys(m)) {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	r, err := loadRoutine(cfg)
	if err != nil {
		return err
	}

	if runs, _ := cmd.Flags().GetInt("runs"); runs > 1 {
		return runEnsemble(cmd.Context(), cfg, r, runs)
	}

	logger := newLogger()
	sink, closeSink, err := newSink(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeSink()

	s, err := buildSim(cfg, nil, sink, r)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	logger.Debug("starting run", "target", cfg.Target, "duration", cfg.Duration, "integrator", cfg.Integrator)
	began := time.Now()
	result, err := s.Run(cmd.Context(), sim.RunConfig(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(began)

	tuning := s.Controller().Tuning()
	lo, hi := tuning.Bounds()
	runID, err := st.Save(storage.RunMetadata{
		Name:        runName(cfg, r),
		Seed:        cfg.Seed,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Integrator:  cfg.Integrator,
		Gains:       storage.GainsFrom(tuning),
		MinHeight:   lo,
		MaxHeight:   hi,
		OutputLimit: cfg.OutputLimit,
		Routine:     cfg.Routine,
	}, result)
	if err != nil {
		return err
	}

	last := result.Last()
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final: target %.0f measured %.0f (%s)\n", last.Target, last.Measured, last.State)
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)
	return nil
}

// runEnsemble repeats the run with consecutive seeds and reports the mean
// and standard deviation of each metric.
func runEnsemble(ctx context.Context, cfg *config.Config, r *routine.Routine, runs int) error {
	ens := sim.NewEnsemble(func(seed int64) (*sim.Simulator, error) {
		return buildSim(cfg, nil, telemetry.Noop{}, r)
	}, runs, cfg.Seed)

	results, err := ens.Run(ctx, sim.RunConfig(cfg))
	if err != nil {
		return err
	}

	values := make(map[string][]float64)
	for _, res := range results {
		for name, v := range res.Metrics {
			values[name] = append(values[name], v)
		}
	}

	fmt.Printf("%d runs, seeds %d..%d\n\n", runs, cfg.Seed, cfg.Seed+int64(runs)-1)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, name := range slices.Sorted(maps.Keys(values)) {
		xs := values[name]
		mean, std := stat.MeanStdDev(xs, nil)
		if len(xs) < 2 {
			std = 0
		}
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", name, mean, std, slices.Min(xs), slices.Max(xs))
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tKP\tKI\tKD\tIAE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%g\t%g\t%g\t%.1f\n",
			run.ID[:8],
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Gains.Kp,
			run.Gains.Ki,
			run.Gains.Kd,
			run.Metrics["iae"],
		)
	}
	return w.Flush()
}

func loadRun(prefix string) (*storage.RunMetadata, []sim.Sample, error) {
	st := storage.New(dataDir)
	runID, err := st.Resolve(prefix)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, samples, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(samples))

	fmt.Println(viz.PlotRun(samples, 80, 12, "target / measured position"))
	fmt.Println()

	outputs := make([]float64, len(samples))
	for i, s := range samples {
		outputs[i] = s.Output
	}
	fmt.Println(viz.PlotSeries(outputs, 80, 6, "controller output"))

	if path, _ := cmd.Flags().GetString("svg"); path != "" {
		if err := os.WriteFile(path, []byte(export.RunToSVG(samples, 800, 400)), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", path)
	}
	if path, _ := cmd.Flags().GetString("png"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WritePNG(f, meta.Name, samples, 8, 6); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, samples)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	return st.ExportCSV(os.Stdout, runID)
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	r, err := loadRoutine(cfg)
	if err != nil {
		return err
	}

	kpRange, _ := cmd.Flags().GetFloat64Slice("kp-range")
	kdRange, _ := cmd.Flags().GetFloat64Slice("kd-range")
	points, _ := cmd.Flags().GetInt("points")
	metric, _ := cmd.Flags().GetString("metric")
	if len(kpRange) != 2 || len(kdRange) != 2 {
		return fmt.Errorf("ranges take two values, got kp %v kd %v", kpRange, kdRange)
	}

	grid := optim.NewGridSearch(
		[]string{slide.ParamKp, slide.ParamKd},
		[][]float64{
			optim.Linspace(kpRange[0], kpRange[1], points),
			optim.Linspace(kdRange[0], kdRange[1], points),
		},
	)

	fmt.Printf("searching %d candidates for lowest %s...\n", grid.Size(), metric)
	best, value, err := grid.Search(cmd.Context(), optim.SlideObjective(cfg, r), metric)
	if err != nil {
		return err
	}
	evaluated, failed := grid.Stats()

	fmt.Printf("evaluated %d (%d failed)\n", evaluated, failed)
	fmt.Printf("best %s: %.4f\n", metric, value)
	fmt.Printf("  kp: %g\n  kd: %g\n", best[slide.ParamKp], best[slide.ParamKd])

	if path, _ := cmd.Flags().GetString("write"); path != "" {
		cfg.Gains.Kp = best[slide.ParamKp]
		cfg.Gains.Kd = best[slide.ParamKd]
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	step, _ := cmd.Flags().GetFloat64("step")

	tuning, err := cfg.NewTuning()
	if err != nil {
		return err
	}
	build := func() (*sim.Simulator, error) {
		s, err := sim.FromConfig(cfg, tuning, telemetry.Noop{})
		if err != nil {
			return nil, err
		}
		if cfg.Noise > 0 {
			s.Rig().Encoder().SetNoise(cfg.Noise, cfg.Seed)
		}
		return s, nil
	}

	m, err := viz.NewModel(build, cfg.Dt, step)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
