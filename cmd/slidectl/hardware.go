package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/slidectl/internal/hw/canbus"
	"github.com/san-kum/slidectl/internal/slide"
	"github.com/san-kum/slidectl/internal/telemetry"
	"github.com/san-kum/slidectl/internal/tuning"
	"github.com/san-kum/slidectl/internal/vision"
)

const statusInterval = time.Second

func detectProp(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}

	rec := telemetry.NewRecorder(1)
	det, err := vision.NewDetector(rec)
	if err != nil {
		return err
	}
	blue, _ := cmd.Flags().GetBool("blue")
	det.SetDetectRed(!blue)

	loc := det.Process(img)
	scores := det.LastScores()
	fmt.Printf("left:   %.0f\n", scores.Left)
	fmt.Printf("middle: %.0f\n", scores.Middle)
	fmt.Printf("right:  %.0f\n", scores.Right)
	fmt.Printf("location: %s\n", loc)

	if path, _ := cmd.Flags().GetString("mask"); path != "" {
		out, err := os.Create(path)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := png.Encode(out, det.Mask(img)); err != nil {
			return fmt.Errorf("write mask: %w", err)
		}
	}
	return nil
}

func runCAN(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if iface, _ := cmd.Flags().GetString("iface"); iface != "" {
		cfg.CAN.Interface = iface
	}
	watch, _ := cmd.Flags().GetBool("watch")
	if watch && configFile == "" {
		return fmt.Errorf("--watch needs --config")
	}

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Telemetry.Metrics = addr
	}

	logger := newLogger().With(slog.String("iface", cfg.CAN.Interface))

	var reg *prometheus.Registry
	if cfg.Telemetry.Metrics != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
	}
	sink, closeSink, err := newSink(cfg, logger, registerer(reg))
	if err != nil {
		return err
	}
	defer closeSink()

	cell, err := cfg.NewTuning()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	bus, err := canbus.Dial(ctx, cfg.CAN.Interface)
	if err != nil {
		return err
	}

	period := time.Duration(cfg.CAN.Period * float64(time.Second))
	// Motor sends outlive ctx so the brake on shutdown still goes out.
	sendCtx := context.WithoutCancel(ctx)
	left := canbus.NewMotor(sendCtx, bus.Transmitter(), cfg.CAN.LeftID, period, logger)
	right := canbus.NewMotor(sendCtx, bus.Transmitter(), cfg.CAN.RightID, period, logger)
	enc := canbus.NewEncoder(bus.Receiver(), cfg.CAN.EncoderID, logger)

	opts := append(cfg.ControllerOptions(), slide.WithTuning(cell))
	ctrl, err := slide.New(enc, left, right, sink, opts...)
	if err != nil {
		bus.Close()
		return err
	}
	ctrl.SetTargetPosition(cfg.Target)

	g.Go(func() error { return enc.Run(ctx) })

	if reg != nil {
		registerMotorStats(reg, "left", left)
		registerMotorStats(reg, "right", right)
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "slide",
			Name:      "encoder_frames_total",
			Help:      "Encoder frames received.",
		}, func() float64 { return float64(enc.Frames()) }))

		srv := &http.Server{
			Addr:              cfg.Telemetry.Metrics,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
	}

	if watch {
		w := tuning.NewWatcher(configFile, cell, logger)
		g.Go(func() error { return w.Run(ctx) })
	}

	g.Go(func() error {
		defer bus.Close()

		ticker := time.NewTicker(period)
		defer ticker.Stop()
		status := time.NewTicker(statusInterval)
		defer status.Stop()

		logger.Info("control loop started", slog.Duration("period", period), slog.Float64("target", ctrl.TargetPosition()))
		for {
			select {
			case <-ctx.Done():
				left.SetPower(0)
				right.SetPower(0)
				logger.Info("control loop stopped")
				return nil
			case <-ticker.C:
				ctrl.Update()
			case <-status.C:
				d := ctrl.Diagnostics()
				sent, failed := left.Stats()
				logger.Info("status",
					slog.String("state", d.State.String()),
					slog.Float64("target", d.Target),
					slog.Int("position", enc.CurrentPosition()),
					slog.Float64("output", d.Output),
					slog.Uint64("encoder_frames", enc.Frames()),
					slog.Uint64("sent", sent),
					slog.Uint64("failed", failed),
					slog.Float64("kp", cell.Kp()),
				)
			}
		}
	})

	return g.Wait()
}

// registerer keeps a nil registry from becoming a non-nil interface.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

func registerMotorStats(reg prometheus.Registerer, side string, m *canbus.Motor) {
	labels := prometheus.Labels{"motor": side}
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "slide",
			Name:        "motor_commands_sent_total",
			Help:        "Power commands transmitted.",
			ConstLabels: labels,
		}, func() float64 { sent, _ := m.Stats(); return float64(sent) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "slide",
			Name:        "motor_commands_failed_total",
			Help:        "Power commands that could not be encoded or sent.",
			ConstLabels: labels,
		}, func() float64 { _, failed := m.Stats(); return float64(failed) }),
	)
}
