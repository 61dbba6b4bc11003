package l3pressure

import (
	"context"
	"math"
	"sort"
	"time"
)

// CalibrationConfig controls the unregulated throughput probe.
type CalibrationConfig struct {
	Duration time.Duration // How long to poke without pacing
	LapOps   uint64        // Operations per measured lap
}

// DefaultCalibrationConfig returns sensible defaults.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		Duration: 500 * time.Millisecond,
		LapOps:   100_000,
	}
}

// CalibrationResult contains the measurements of one probe.
type CalibrationResult struct {
	Laps       int             // Number of laps completed
	Operations uint64          // Total mutations performed
	Duration   time.Duration   // Wall time of the probe
	Throughput float64         // Operations per second
	LapTimes   []time.Duration // Duration of each lap
}

// Statistics contains lap duration percentiles.
type Statistics struct {
	Mean   time.Duration
	Stddev time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
}

// Calibrate pokes the slab back to back, without sleeping, for cfg.Duration
// and reports the raw throughput the host sustains. A regulated run can only
// reach targets below that figure.
func Calibrate(ctx context.Context, slab []byte, rng *Rng, cfg CalibrationConfig) (CalibrationResult, error) {
	if len(slab) == 0 {
		return CalibrationResult{}, ErrEmptySlab
	}
	if cfg.LapOps == 0 {
		cfg.LapOps = DefaultCalibrationConfig().LapOps
	}

	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	result := CalibrationResult{LapTimes: make([]time.Duration, 0, 64)}
	for probeCtx.Err() == nil {
		lapStart := time.Now()
		poke(slab, rng, cfg.LapOps)
		result.LapTimes = append(result.LapTimes, time.Since(lapStart))
		result.Laps++
		result.Operations += cfg.LapOps
	}
	result.Duration = time.Since(start)

	// Parent cancellation is an error; the probe timing out is not.
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if result.Duration > 0 {
		result.Throughput = float64(result.Operations) / result.Duration.Seconds()
	}
	return result, nil
}

// CalculateStatistics computes lap duration percentiles.
func CalculateStatistics(result CalibrationResult) Statistics {
	if len(result.LapTimes) == 0 {
		return Statistics{}
	}

	sorted := make([]time.Duration, len(result.LapTimes))
	copy(sorted, result.LapTimes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, lap := range sorted {
		sum += lap
	}
	mean := sum / time.Duration(len(sorted))

	var variance float64
	for _, lap := range sorted {
		diff := float64(lap - mean)
		variance += diff * diff
	}
	stddev := time.Duration(math.Sqrt(variance / float64(len(sorted))))

	return Statistics{
		Mean:   mean,
		Stddev: stddev,
		P50:    sorted[len(sorted)*50/100],
		P95:    sorted[len(sorted)*95/100],
		P99:    sorted[len(sorted)*99/100],
	}
}

// Headroom is the ratio of measured throughput to target. Regulation is
// possible only above 1; laps grow without bound as it approaches 1.
func (r CalibrationResult) Headroom(target float64) float64 {
	if target <= 0 {
		return math.Inf(1)
	}
	return r.Throughput / target
}
