// Package dogstatsd sends histogram samples to a DogStatsD collector.
//
// Two backends are provided: Client writes one datagram per sample over a
// connected UDP or unixgram socket and reconnects on failure; Datadog wraps
// the official datadog-go client.
package dogstatsd

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// UnixPrefix marks an address as a unix datagram socket path.
const UnixPrefix = "unix:"

// DefaultWriteTimeout bounds a single datagram write.
const DefaultWriteTimeout = time.Second

// maxRetries is the number of reconnect-and-resend cycles after a failed send.
const maxRetries = 3

// AppendHistogram appends "<name>:<value>|h|#<tags>\n" to buf.
func AppendHistogram(buf []byte, name string, value float64, tags string) []byte {
	buf = append(buf, name...)
	buf = append(buf, ':')
	buf = strconv.AppendFloat(buf, value, 'f', -1, 64)
	buf = append(buf, "|h|#"...)
	buf = append(buf, tags...)
	return append(buf, '\n')
}

// Dialer opens a connected datagram socket to addr.
type Dialer func(addr string) (net.Conn, error)

// Option configures a Client.
type Option func(*Client)

// WithWriteTimeout sets the deadline applied to every write.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDialer replaces the socket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dial = d
	}
}

// Client is a minimal DogStatsD histogram client.
// It is not safe for concurrent use.
type Client struct {
	addr    string
	tags    string
	timeout time.Duration
	dial    Dialer

	conn net.Conn
	buf  []byte
}

// New connects to addr. An address of the form "unix:/path" selects a unix
// datagram socket, anything else is treated as a UDP host:port.
func New(addr, tags string, opts ...Option) (*Client, error) {
	c := &Client{
		addr:    addr,
		tags:    tags,
		timeout: DefaultWriteTimeout,
		dial:    Dial,
	}
	for _, opt := range opts {
		opt(c)
	}
	conn, err := c.dial(addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	c.conn = conn
	return c, nil
}

// Dial is the default Dialer.
func Dial(addr string) (net.Conn, error) {
	if path, ok := strings.CutPrefix(addr, UnixPrefix); ok {
		return net.DialUnix("unixgram", nil, &net.UnixAddr{Name: path, Net: "unixgram"})
	}
	return net.Dial("udp", addr)
}

// Send writes one histogram sample. A failed write is retried up to three
// times, reconnecting before each retry; the last error is returned.
func (c *Client) Send(name string, value float64) error {
	c.buf = AppendHistogram(c.buf[:0], name, value, c.tags)

	failures := 0
	for {
		err := c.write()
		if err == nil {
			return nil
		}
		failures++
		if failures > maxRetries {
			return fmt.Errorf("send %s to %s: %w", name, c.addr, err)
		}
		_ = c.reconnect()
	}
}

func (c *Client) write() error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	_, err := c.conn.Write(c.buf)
	return err
}

func (c *Client) reconnect() error {
	conn, err := c.dial(c.addr)
	if err != nil {
		return err
	}
	_ = c.conn.Close()
	c.conn = conn
	return nil
}

// Close closes the underlying socket.
func (c *Client) Close() error {
	return c.conn.Close()
}
