package l3pressure

import (
	"fmt"
	"math"
	"time"
)

// Kp is the proportional gain applied to the throughput error.
const Kp = 0.0001

// adjustmentsPerSecond sets how often the lap size is recalibrated, expressed
// as a fraction of the target: one adjustment every 1/100th of the target.
const adjustmentsPerSecond = 100

// Regulator is a proportional controller over the lap size.
//
// Control loop:
// - AddLap after every lap
// - ShouldAdjust once ~1% of the per-second target has been performed
// - AdjustLap corrects LapOps from the throughput observed since the last adjustment
type Regulator struct {
	// Operations to perform in one lap. Never below 1.
	LapOps float64
	// Operations performed since the last adjustment.
	OpsCounter float64
	// Goal in operations per second.
	TargetOpsPerSecond float64

	lastChecked time.Time
	now         func() time.Time
}

// RegulatorOption configures a Regulator.
type RegulatorOption func(*Regulator)

// WithClock replaces time.Now, mostly for simulated time in tests.
func WithClock(now func() time.Time) RegulatorOption {
	return func(r *Regulator) {
		r.now = now
	}
}

// NewRegulator creates a regulator aiming at targetOpsPerSecond, starting with
// laps of initialLapOps operations.
func NewRegulator(targetOpsPerSecond, initialLapOps uint64, opts ...RegulatorOption) *Regulator {
	r := &Regulator{
		LapOps:             math.Max(float64(initialLapOps), 1),
		TargetOpsPerSecond: float64(targetOpsPerSecond),
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.lastChecked = r.now()
	return r
}

// AddLap records one completed lap.
func (r *Regulator) AddLap() {
	r.OpsCounter += r.LapOps
}

// ShouldAdjust reports whether enough work has accumulated to recalibrate.
func (r *Regulator) ShouldAdjust() bool {
	return r.OpsCounter >= r.TargetOpsPerSecond/adjustmentsPerSecond
}

// AdjustLap applies the proportional correction and starts a new window.
//
// If the clock has not advanced since the previous adjustment the call is a
// no-op and the current window keeps accumulating.
func (r *Regulator) AdjustLap() {
	now := r.now()
	elapsed := now.Sub(r.lastChecked).Seconds()
	if elapsed <= 0 {
		return
	}

	correction := Kp * (r.OpsCounter/elapsed - r.TargetOpsPerSecond)
	r.LapOps = math.Floor(math.Max(r.LapOps-correction, 1))

	r.OpsCounter = 0
	r.lastChecked = now
}

// String implements fmt.Stringer for debug output.
func (r *Regulator) String() string {
	return fmt.Sprintf("Regulator{lap_ops: %.0f, ops_counter: %.0f, target_ops_per_s: %.0f, last_checked: %s}",
		r.LapOps, r.OpsCounter, r.TargetOpsPerSecond, r.lastChecked.Format(time.RFC3339Nano))
}
