package l3pressure

// Sink receives throughput samples as histogram values.
// Tags are bound to the sink when it is built.
//
// Send is called synchronously from the workload loop; implementations must
// bound their own latency.
type Sink interface {
	Send(name string, value float64) error
}

// Metric suffixes appended to the configured metric name.
const (
	MetricOpsPerSecond = "ops_per_s"
	MetricLapOps       = "lap_ops"
)
