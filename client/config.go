package client

import (
	"crypto/tls"
	"time"

	"github.com/ha1tch/procdb/internal/xlog"
)

// Backpressure thresholds, expressed per connection. A connection
// enters backpressure when either is exceeded, and leaves it once
// both fall back under the threshold (simple hysteresis, no separate
// low-water mark: matches the original client's fixed constants).
const (
	DefaultMaxOutstandingPerConnection = 1000
	DefaultMaxQueuedBytesPerConnection = 262144
)

// DefaultMaxFrameSize bounds a single incoming frame; a declared frame
// length beyond this is treated as a protocol error and the owning
// connection is closed.
const DefaultMaxFrameSize = 50 * 1024 * 1024

// Config configures a Client.
type Config struct {
	Username string
	Password string

	// TLSConfig is the TLS configuration for connections made with
	// CreateConnection's useSSL=true; when nil, those connections use
	// a configuration that skips certificate verification. Connections
	// made with useSSL=false always stay plaintext regardless of this
	// setting.
	TLSConfig *tls.Config

	// MaxOutstandingPerConnection and MaxQueuedBytesPerConnection set
	// the per-connection backpressure thresholds. Zero means use the
	// package default.
	MaxOutstandingPerConnection int
	MaxQueuedBytesPerConnection int

	// MaxFrameSize bounds an incoming frame. Zero means use
	// DefaultMaxFrameSize.
	MaxFrameSize int

	// DialTimeout bounds connection establishment, including the
	// login handshake. Zero means no timeout.
	DialTimeout time.Duration

	// Listener receives connection lifecycle and backpressure
	// notifications. Nil means NoopStatusListener.
	Listener StatusListener

	// Logger receives structured log entries. Nil means a discarding
	// logger.
	Logger *xlog.Logger
}

// DefaultConfig returns a Config with every optional field at its
// package default.
func DefaultConfig() Config {
	return Config{
		MaxOutstandingPerConnection: DefaultMaxOutstandingPerConnection,
		MaxQueuedBytesPerConnection: DefaultMaxQueuedBytesPerConnection,
		MaxFrameSize:                DefaultMaxFrameSize,
		Listener:                    NoopStatusListener{},
		Logger:                      xlog.Discard(),
	}
}

func (c *Config) normalize() {
	if c.MaxOutstandingPerConnection <= 0 {
		c.MaxOutstandingPerConnection = DefaultMaxOutstandingPerConnection
	}
	if c.MaxQueuedBytesPerConnection <= 0 {
		c.MaxQueuedBytesPerConnection = DefaultMaxQueuedBytesPerConnection
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
	if c.Listener == nil {
		c.Listener = NoopStatusListener{}
	}
	if c.Logger == nil {
		c.Logger = xlog.Discard()
	}
}
