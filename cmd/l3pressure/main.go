// Command l3pressure keeps a steady rate of L3 cache hits on the host.
//
// It allocates a slab a few times larger than L2 and pokes random bytes in it
// at a regulated rate until it receives SIGINT or SIGTERM. All settings come
// from the environment, see package config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alexshd/l3pressure"
	"github.com/alexshd/l3pressure/config"
	"github.com/alexshd/l3pressure/dogstatsd"
)

func main() {
	slog.SetDefault(newLogger(slog.LevelInfo))

	v := viper.New()
	v.AutomaticEnv()
	cfg, err := config.Load(v, slog.Default())
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		slog.SetDefault(newLogger(slog.LevelDebug))
	}

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		slog.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		slog.Warn("Could not apply CPU quota to GOMAXPROCS", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Workload stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Workload stopped")
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
	}))
}

type closingSink interface {
	l3pressure.Sink
	Close() error
}

func newSink(cfg config.Config) (closingSink, error) {
	switch cfg.StatsdBackend {
	case config.BackendDatadog:
		return dogstatsd.NewDatadog(cfg.StatsdURL, cfg.Tags, cfg.StatsdWriteTimeout)
	default:
		return dogstatsd.New(cfg.StatsdURL, cfg.Tags, dogstatsd.WithWriteTimeout(cfg.StatsdWriteTimeout))
	}
}

func run(ctx context.Context, cfg config.Config) error {
	var sink l3pressure.Sink
	if cfg.StatsdEnable {
		s, err := newSink(cfg)
		if err != nil {
			return fmt.Errorf("metrics sink: %w", err)
		}
		defer s.Close()
		sink = s
		slog.Info("Instantiated dogstatsd client", "addr", cfg.StatsdURL, "backend", cfg.StatsdBackend)
	}

	slab, err := l3pressure.AllocateSlab(cfg.SlabSize(), l3pressure.Backing(cfg.SlabBacking))
	if err != nil {
		return fmt.Errorf("allocate slab: %w", err)
	}
	defer slab.Close()
	slog.Info("Allocated slab", "bytes", len(slab.Buf), "backing", slab.Backing)

	rng := l3pressure.NewRng(cfg.Seed)

	if cfg.CalibrateDuration > 0 {
		probe, err := l3pressure.Calibrate(ctx, slab.Buf, rng, l3pressure.CalibrationConfig{
			Duration: cfg.CalibrateDuration,
		})
		if err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
		stats := l3pressure.CalculateStatistics(probe)
		headroom := probe.Headroom(float64(cfg.TargetOpsPerSecond))
		slog.Info("Calibrated",
			"ops_per_s", probe.Throughput,
			"headroom", headroom,
			"lap_p50", stats.P50,
			"lap_p99", stats.P99,
		)
		if headroom < 1 {
			slog.Warn("Target exceeds measured throughput, the regulator will saturate",
				"target", cfg.TargetOpsPerSecond, "measured", probe.Throughput)
		}
	}

	reg := l3pressure.NewRegulator(cfg.TargetOpsPerSecond, cfg.InitialLapOps)
	driver, err := l3pressure.NewDriver(slab.Buf, rng, reg, l3pressure.DriverConfig{
		Sleep:      cfg.SleepDuration,
		MetricName: cfg.MetricName,
		Debug:      cfg.Debug,
		Sink:       sink,
		Logger:     slog.Default(),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	driver.Warmup()
	slog.Info("Starting workload", "target_ops_per_s", cfg.TargetOpsPerSecond, "warmup", time.Since(start))
	return driver.Run(ctx)
}
