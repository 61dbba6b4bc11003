// Package config loads the workload settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/alexshd/l3pressure"
)

// Environment variable names.
const (
	EnvL2Size         = "L2_SIZE"
	EnvL3Hits         = "L3_HITS"
	EnvDebug          = "DEBUG"
	EnvSlabCacheRatio = "SLAB_CACHE_RATIO"
	EnvSleepDuration  = "SLEEP_DURATION"
	EnvStatsdEnable   = "STATSD_ENABLE"
	EnvStatsdURL      = "STATSD_URL"
	EnvStatsdBackend  = "STATSD_BACKEND"
	EnvStatsdTimeout  = "STATSD_WRITE_TIMEOUT_MS"
	EnvTags           = "DD_TAGS"
	EnvMetricName     = "DD_METRIC_NAME"
	EnvSeed           = "RNG_SEED"
	EnvInitialLapOps  = "INITIAL_LAP_OPS"
	EnvSlabBacking    = "SLAB_BACKING"
	EnvCalibrate      = "CALIBRATE_DURATION_MS"
)

// Metrics backends.
const (
	BackendLine    = "line"
	BackendDatadog = "datadog"
)

// ErrStatsdURL is returned when metrics are enabled without a destination.
var ErrStatsdURL = errors.New("env variable STATSD_ENABLE but STATSD_URL is unreadable")

// Config holds every startup parameter.
type Config struct {
	L2Size             int
	SlabCacheRatio     float64
	TargetOpsPerSecond uint64
	Debug              bool
	SleepDuration      time.Duration
	InitialLapOps      uint64
	Seed               uint64
	SlabBacking        string
	CalibrateDuration  time.Duration

	StatsdEnable       bool
	StatsdURL          string
	StatsdBackend      string
	StatsdWriteTimeout time.Duration
	Tags               string
	MetricName         string
}

// SlabSize returns the slab length in bytes.
func (c Config) SlabSize() int {
	return l3pressure.SlabSize(c.L2Size, c.SlabCacheRatio)
}

// Load reads the configuration from v, which should have AutomaticEnv set.
// Optional values that are missing are logged with their default.
func Load(v *viper.Viper, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := loader{v: v, logger: logger}

	cfg := Config{
		L2Size:             l.required(EnvL2Size, toPositiveInt),
		TargetOpsPerSecond: optional(&l, EnvL3Hits, uint64(100_000_000), cast.ToUint64E),
		Debug:              v.GetBool(EnvDebug),
		SlabCacheRatio:     optional(&l, EnvSlabCacheRatio, 2.0, cast.ToFloat64E),
		SleepDuration:      time.Duration(optional(&l, EnvSleepDuration, uint64(100), cast.ToUint64E)) * time.Microsecond,
		InitialLapOps:      optional(&l, EnvInitialLapOps, uint64(1_000_000), cast.ToUint64E),
		Seed:               optional(&l, EnvSeed, uint64(0), cast.ToUint64E),
		SlabBacking:        v.GetString(EnvSlabBacking),
		CalibrateDuration:  time.Duration(optional(&l, EnvCalibrate, uint64(0), cast.ToUint64E)) * time.Millisecond,

		StatsdEnable:       v.GetBool(EnvStatsdEnable),
		StatsdBackend:      v.GetString(EnvStatsdBackend),
		StatsdWriteTimeout: time.Duration(optional(&l, EnvStatsdTimeout, uint64(1000), cast.ToUint64E)) * time.Millisecond,
		Tags:               v.GetString(EnvTags),
		MetricName:         v.GetString(EnvMetricName),
	}
	if l.err != nil {
		return Config{}, l.err
	}

	if cfg.SlabBacking == "" {
		cfg.SlabBacking = string(l3pressure.BackingHeap)
	}
	if cfg.MetricName == "" {
		cfg.MetricName = "apm_reliability.l3_daemonset"
	}
	if cfg.StatsdBackend == "" {
		cfg.StatsdBackend = BackendLine
	}
	if cfg.StatsdBackend != BackendLine && cfg.StatsdBackend != BackendDatadog {
		return Config{}, fmt.Errorf("env variable %s should be %q or %q", EnvStatsdBackend, BackendLine, BackendDatadog)
	}
	if cfg.StatsdEnable {
		cfg.StatsdURL = v.GetString(EnvStatsdURL)
		if cfg.StatsdURL == "" {
			return Config{}, ErrStatsdURL
		}
	}
	if cfg.SlabSize() <= 0 {
		return Config{}, fmt.Errorf("slab size %d from %s=%d and %s=%g must be positive",
			cfg.SlabSize(), EnvL2Size, cfg.L2Size, EnvSlabCacheRatio, cfg.SlabCacheRatio)
	}
	if cfg.TargetOpsPerSecond == 0 {
		return Config{}, fmt.Errorf("env variable %s should be positive", EnvL3Hits)
	}
	return cfg, nil
}

// loader keeps the first parse error so Load reads like a flat struct literal.
type loader struct {
	v      *viper.Viper
	logger *slog.Logger
	err    error
}

func (l *loader) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

func (l *loader) required(name string, parse func(any) (int, error)) int {
	if !l.v.IsSet(name) {
		l.fail(fmt.Errorf("env variable %s is missing", name))
		return 0
	}
	n, err := parse(l.v.Get(name))
	if err != nil {
		l.fail(fmt.Errorf("env variable %s should be a positive integer: %w", name, err))
	}
	return n
}

func optional[T any](l *loader, name string, def T, parse func(any) (T, error)) T {
	if !l.v.IsSet(name) {
		l.logger.Info("Env variable is missing, using default", "name", name, "default", def)
		return def
	}
	val, err := parse(l.v.Get(name))
	if err != nil {
		l.fail(fmt.Errorf("env variable %s should be a %T: %w", name, def, err))
		return def
	}
	return val
}

func toPositiveInt(raw any) (int, error) {
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("got %d", n)
	}
	return n, nil
}
