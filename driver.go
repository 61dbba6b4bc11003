package l3pressure

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"
)

// ErrEmptySlab is returned when a driver is built over a zero-length slab.
var ErrEmptySlab = errors.New("l3pressure: slab is empty")

// DefaultSleep is the pause between two laps.
const DefaultSleep = 100 * time.Microsecond

// DriverConfig controls the workload loop.
type DriverConfig struct {
	Sleep      time.Duration // Pause between laps (default: DefaultSleep)
	MetricName string        // Prefix for emitted metrics
	Debug      bool          // Log regulator state at every report
	Sink       Sink          // Optional metrics destination
	Logger     *slog.Logger  // Defaults to slog.Default()

	// Test hooks. Nil means the real clock and time.Sleep.
	Clock     func() time.Time
	SleepFunc func(time.Duration)
}

// Driver runs the paced random-access workload over a slab.
// It owns the slab, generator and regulator; none of them may be shared.
type Driver struct {
	slab   []byte
	rng    *Rng
	reg    *Regulator
	cfg    DriverConfig
	logger *slog.Logger

	opsPerSecondName string
	lapOpsName       string
}

// NewDriver wires a driver. The slab must not be empty.
func NewDriver(slab []byte, rng *Rng, reg *Regulator, cfg DriverConfig) (*Driver, error) {
	if len(slab) == 0 {
		return nil, ErrEmptySlab
	}
	if cfg.Sleep <= 0 {
		cfg.Sleep = DefaultSleep
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SleepFunc == nil {
		cfg.SleepFunc = time.Sleep
	}
	return &Driver{
		slab:             slab,
		rng:              rng,
		reg:              reg,
		cfg:              cfg,
		logger:           cfg.Logger,
		opsPerSecondName: cfg.MetricName + "." + MetricOpsPerSecond,
		lapOpsName:       cfg.MetricName + "." + MetricLapOps,
	}, nil
}

// Poke performs n read-modify-write mutations at random offsets.
// Each write adds the previously written byte, chaining every mutation to the
// one before it.
func (d *Driver) Poke(n uint64) {
	poke(d.slab, d.rng, n)
}

func poke(slab []byte, rng *Rng, n uint64) {
	var last byte
	size := len(slab)
	for i := uint64(0); i < n; i++ {
		idx := rng.Index(size)
		slab[idx] = slab[idx] + 1 + last
		last = slab[idx]
	}
}

// Warmup touches half the slab's length worth of random offsets.
func (d *Driver) Warmup() {
	d.Poke(uint64(len(d.slab) / 2))
	d.logger.Info("Finished cache warmup", "ops", len(d.slab)/2)
}

// Run drives laps until ctx is cancelled and returns ctx.Err().
// Cancellation is observed at lap boundaries.
func (d *Driver) Run(ctx context.Context) error {
	tracking := d.cfg.Debug || d.cfg.Sink != nil
	reportStart := d.cfg.Clock()
	var counter float64

	for {
		for i := uint64(0); i < math.MaxUint64; i++ {
			for !d.reg.ShouldAdjust() {
				if err := ctx.Err(); err != nil {
					return err
				}
				d.Poke(uint64(d.reg.LapOps))
				d.reg.AddLap()
				d.cfg.SleepFunc(d.cfg.Sleep)
				if tracking {
					counter += d.reg.LapOps
				}
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if tracking && counter > d.reg.TargetOpsPerSecond {
				now := d.cfg.Clock()
				d.report(counter, now.Sub(reportStart))
				counter = 0
				reportStart = now
			}
			d.reg.AdjustLap()
		}
		d.logger.Debug("Slab checksum", "sum", Checksum(d.slab))
	}
}

func (d *Driver) report(counter float64, elapsed time.Duration) {
	if d.cfg.Debug {
		d.logger.Debug(d.reg.String())
		d.logger.Debug("Lap window", "ops", counter, "elapsed_ms", elapsed.Milliseconds())
	}
	if d.cfg.Sink == nil || elapsed <= 0 {
		return
	}
	if err := d.cfg.Sink.Send(d.opsPerSecondName, counter/elapsed.Seconds()); err != nil {
		d.logger.Warn("Error sending metrics to dogstatsd", "metric", d.opsPerSecondName, "error", err)
	}
	if err := d.cfg.Sink.Send(d.lapOpsName, d.reg.LapOps); err != nil {
		d.logger.Warn("Error sending metrics to dogstatsd", "metric", d.lapOpsName, "error", err)
	}
}

// Checksum folds every slab byte into one value with wrapping addition.
// The workload loop uses it so the slab contents stay observable.
//
//go:noinline
func Checksum(slab []byte) byte {
	var sum byte
	for _, b := range slab {
		sum += b
	}
	return sum
}
