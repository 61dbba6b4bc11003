package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) (Config, error) {
	t.Helper()
	v := viper.New()
	v.AutomaticEnv()
	return Load(v, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvL2Size, "1048576")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, 1048576, cfg.L2Size)
	assert.Equal(t, uint64(100_000_000), cfg.TargetOpsPerSecond)
	assert.Equal(t, 2.0, cfg.SlabCacheRatio)
	assert.Equal(t, 100*time.Microsecond, cfg.SleepDuration)
	assert.Equal(t, uint64(1_000_000), cfg.InitialLapOps)
	assert.Equal(t, time.Second, cfg.StatsdWriteTimeout)
	assert.Equal(t, "apm_reliability.l3_daemonset", cfg.MetricName)
	assert.Equal(t, BackendLine, cfg.StatsdBackend)
	assert.Equal(t, "heap", cfg.SlabBacking)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.StatsdEnable)
	assert.Equal(t, 2*1048576, cfg.SlabSize())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvL2Size, "262144")
	t.Setenv(EnvL3Hits, "5000000")
	t.Setenv(EnvSlabCacheRatio, "3.5")
	t.Setenv(EnvSleepDuration, "250")
	t.Setenv(EnvDebug, "true")
	t.Setenv(EnvStatsdEnable, "true")
	t.Setenv(EnvStatsdURL, "unix:/var/run/datadog/dsd.socket")
	t.Setenv(EnvStatsdBackend, BackendDatadog)
	t.Setenv(EnvTags, "env:test,team:apm")
	t.Setenv(EnvMetricName, "x")
	t.Setenv(EnvSeed, "42")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, uint64(5_000_000), cfg.TargetOpsPerSecond)
	assert.Equal(t, 3.5, cfg.SlabCacheRatio)
	assert.Equal(t, 250*time.Microsecond, cfg.SleepDuration)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.StatsdEnable)
	assert.Equal(t, "unix:/var/run/datadog/dsd.socket", cfg.StatsdURL)
	assert.Equal(t, BackendDatadog, cfg.StatsdBackend)
	assert.Equal(t, "env:test,team:apm", cfg.Tags)
	assert.Equal(t, "x", cfg.MetricName)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 917504, cfg.SlabSize())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing L2 size",
			env:     map[string]string{EnvL2Size: ""},
			wantErr: "L2_SIZE is missing",
		},
		{
			name:    "malformed L2 size",
			env:     map[string]string{EnvL2Size: "big"},
			wantErr: "L2_SIZE should be a positive integer",
		},
		{
			name:    "malformed target",
			env:     map[string]string{EnvL2Size: "1024", EnvL3Hits: "fast"},
			wantErr: "L3_HITS should be a uint64",
		},
		{
			name:    "negative sleep",
			env:     map[string]string{EnvL2Size: "1024", EnvSleepDuration: "-1"},
			wantErr: "SLEEP_DURATION should be a uint64",
		},
		{
			name:    "statsd without url",
			env:     map[string]string{EnvL2Size: "1024", EnvStatsdEnable: "true"},
			wantErr: "STATSD_URL is unreadable",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{EnvL2Size: "1024", EnvStatsdBackend: "otlp"},
			wantErr: "STATSD_BACKEND should be",
		},
		{
			name:    "zero slab",
			env:     map[string]string{EnvL2Size: "1024", EnvSlabCacheRatio: "0"},
			wantErr: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(t)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
