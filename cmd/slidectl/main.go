package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/slidectl/internal/config"
	"github.com/san-kum/slidectl/internal/slide"
	"github.com/san-kum/slidectl/internal/telemetry"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string

	dt          float64
	duration    float64
	seed        int64
	integrator  string
	kp          float64
	ki          float64
	kd          float64
	start       float64
	target      float64
	noise       float64
	outputLimit float64
	routineFile string
	logTelem    bool
	telemFile   string
	mqttBroker  string
)

const mqttTimeout = 5 * time.Second

// main registers the slidectl commands and runs the root command. It exits
// with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "slidectl",
		Short:         "linear slide position controller",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".slidectl", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate the slide and save the run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().Int("runs", 1, "number of seeded runs to summarise instead of saving one")

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
	plotCmd.Flags().String("svg", "", "also write an SVG chart to this path")
	plotCmd.Flags().String("png", "", "also write a PNG chart to this path")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and samples as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-12s kp=%g ki=%g kd=%g limit=%g noise=%g\n",
					name, p.Gains.Kp, p.Gains.Ki, p.Gains.Kd, p.OutputLimit, p.Noise)
			}
			return nil
		},
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search Kp and Kd",
		Args:  cobra.NoArgs,
		RunE:  tuneGains,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().Float64Slice("kp-range", []float64{0.01, 0.08}, "kp search range lo,hi")
	tuneCmd.Flags().Float64Slice("kd-range", []float64{0, 0.001}, "kd search range lo,hi")
	tuneCmd.Flags().Int("points", 8, "grid points per parameter")
	tuneCmd.Flags().String("metric", "iae", "metric to minimise")
	tuneCmd.Flags().String("write", "", "write the config with the best gains to this path")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "drive the simulated slide from the keyboard",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().Float64("step", 100, "target change per key press")

	detectCmd := &cobra.Command{
		Use:   "detect [image]",
		Short: "locate the team prop in a camera frame",
		Args:  cobra.ExactArgs(1),
		RunE:  detectProp,
	}
	detectCmd.Flags().Bool("blue", false, "look for the blue prop instead of red")
	detectCmd.Flags().String("mask", "", "write the threshold mask to this PNG path")

	canCmd := &cobra.Command{
		Use:   "can",
		Short: "run the controller against slide hardware on SocketCAN",
		Args:  cobra.NoArgs,
		RunE:  runCAN,
	}
	addConfigFlags(canCmd)
	canCmd.Flags().String("iface", "", "CAN interface (overrides config)")
	canCmd.Flags().Bool("watch", false, "reload gains and bounds when the config file changes")
	canCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, presetsCmd, tuneCmd, liveCmd, detectCmd, canCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for encoder noise")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().Float64Var(&kp, "kp", slide.DefaultKp, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", slide.DefaultKi, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", slide.DefaultKd, "pid kd")
	cmd.Flags().Float64Var(&start, "start", 0, "initial slide position (counts)")
	cmd.Flags().Float64Var(&target, "target", config.DefaultTarget, "target position (counts)")
	cmd.Flags().Float64Var(&noise, "noise", 0, "encoder noise amplitude (counts)")
	cmd.Flags().Float64Var(&outputLimit, "limit", config.DefaultOutputLimit, "output saturation, 0 for none")
	cmd.Flags().StringVar(&routineFile, "routine", "", "routine file (yaml)")
	cmd.Flags().BoolVar(&logTelem, "log-telemetry", false, "log telemetry frames")
	cmd.Flags().StringVar(&telemFile, "telemetry", "", "append CBOR telemetry frames to this file")
	cmd.Flags().StringVar(&mqttBroker, "mqtt", "", "publish telemetry frames to this MQTT broker")
}

// resolveConfig layers the preset, then the config file, then any flag set
// on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if f.Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if f.Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if f.Changed("start") {
		cfg.Start = start
	}
	if f.Changed("target") {
		cfg.Target = target
	}
	if f.Changed("noise") {
		cfg.Noise = noise
	}
	if f.Changed("limit") {
		cfg.OutputLimit = outputLimit
	}
	if f.Changed("routine") {
		cfg.Routine = routineFile
	}
	if f.Changed("log-telemetry") {
		cfg.Telemetry.Log = logTelem
	}
	if f.Changed("telemetry") {
		cfg.Telemetry.File = telemFile
	}
	if f.Changed("mqtt") {
		cfg.Telemetry.MQTT.Broker = mqttBroker
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newSink builds the telemetry sink the config asks for. A nil reg leaves
// out the Prometheus sink. The returned closer releases files and broker
// connections.
func newSink(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (slide.Telemetry, func(), error) {
	var (
		sinks   []slide.Telemetry
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Telemetry.Log {
		sinks = append(sinks, telemetry.NewSlogSink(logger, slog.LevelInfo, "slide"))
	}
	if cfg.Telemetry.File != "" {
		fs, err := telemetry.NewFileSink(cfg.Telemetry.File)
		if err != nil {
			return nil, nil, fmt.Errorf("open telemetry file: %w", err)
		}
		sinks = append(sinks, fs)
		closers = append(closers, func() { fs.Close() })
	}
	if m := cfg.Telemetry.MQTT; m.Broker != "" {
		client, err := telemetry.ConnectMQTT(m.Broker, m.ClientID, m.Topic, mqttTimeout)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		ms := telemetry.NewMQTTSink(client, m.Topic, m.QoS, logger)
		sinks = append(sinks, ms)
		closers = append(closers, func() {
			ms.Close()
			published, failed := ms.Stats()
			logger.Info("mqtt telemetry closed", slog.Uint64("published", published), slog.Uint64("failed", failed))
			client.Publish(m.Topic+"/status", 1, true, telemetry.StatusOffline).WaitTimeout(mqttTimeout)
			client.Disconnect(250)
		})
	}
	if reg != nil {
		ps, err := telemetry.NewPromSink(reg, "slide")
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, ps)
	}

	switch len(sinks) {
	case 0:
		return telemetry.Noop{}, closeAll, nil
	case 1:
		return sinks[0], closeAll, nil
	default:
		return telemetry.NewMulti(sinks...), closeAll, nil
	}
}
