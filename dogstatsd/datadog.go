package dogstatsd

import (
	"fmt"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Datadog sends histograms through the datadog-go client, which buffers and
// flushes in the background.
type Datadog struct {
	client statsd.ClientInterface
	tags   []string
}

// NewDatadog builds a datadog-go backed sink. addr accepts the same forms as
// New; "unix:/path" is translated to datadog-go's "unix:///path".
func NewDatadog(addr, tags string, timeout time.Duration) (*Datadog, error) {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	client, err := statsd.New(datadogAddr(addr),
		statsd.WithWriteTimeout(timeout),
		statsd.WithoutTelemetry(),
	)
	if err != nil {
		return nil, fmt.Errorf("datadog statsd client for %s: %w", addr, err)
	}
	return NewDatadogFromClient(client, tags), nil
}

// NewDatadogFromClient wraps an existing client.
func NewDatadogFromClient(client statsd.ClientInterface, tags string) *Datadog {
	return &Datadog{client: client, tags: SplitTags(tags)}
}

// Send records one histogram sample at full sampling rate.
func (d *Datadog) Send(name string, value float64) error {
	return d.client.Histogram(name, value, d.tags, 1)
}

// Flush forces buffered samples out.
func (d *Datadog) Flush() error {
	return d.client.Flush()
}

// Close flushes and closes the client.
func (d *Datadog) Close() error {
	return d.client.Close()
}

// SplitTags turns "a:1,b:2" into ["a:1", "b:2"], dropping empty entries.
func SplitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func datadogAddr(addr string) string {
	if path, ok := strings.CutPrefix(addr, UnixPrefix); ok && !strings.HasPrefix(path, "//") {
		return statsd.UnixAddressPrefix + path
	}
	return addr
}
