package dogstatsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"env:test", "team:apm"}, SplitTags("env:test, team:apm,"))
	assert.Nil(t, SplitTags(""))
}

func TestDatadogAddr(t *testing.T) {
	assert.Equal(t, "unix:///var/run/dsd.sock", datadogAddr("unix:/var/run/dsd.sock"))
	assert.Equal(t, "unix:///var/run/dsd.sock", datadogAddr("unix:///var/run/dsd.sock"))
	assert.Equal(t, "127.0.0.1:8125", datadogAddr("127.0.0.1:8125"))
}

func TestDatadog_UDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	d, err := NewDatadog(pc.LocalAddr().String(), "env:test", time.Second)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Send("x.ops_per_s", 3.5))
	require.NoError(t, d.Flush())

	assert.Contains(t, readPacket(t, pc), "x.ops_per_s:3.5|h|#env:test")
}
