package client

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ha1tch/procdb/internal/xlog"
	"github.com/ha1tch/procdb/wire"
)

// connState is the connection's position in its state machine:
//
//	Connecting -> Authenticating -> Ready -> Draining -> Closed
//
// Connecting and Authenticating are collapsed into the synchronous
// dial-and-handshake performed by CreateConnection; by the time a
// Connection value is handed to the dispatcher it is already Ready or
// the creation call has failed outright.
type connState int32

const (
	connReady connState = iota
	connDraining
	connClosed
)

func (s connState) String() string {
	switch s {
	case connReady:
		return "ready"
	case connDraining:
		return "draining"
	case connClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection owns one TCP (optionally TLS) socket to a cluster node
// and every invocation outstanding on it. Only the goroutine running
// the owning Client's event loop touches Connection state once it
// leaves the CreateConnection/dialAndHandshake path, with the
// sole exception of the inbound mutex guarding data handed over by the
// reader goroutine.
type Connection struct {
	host string
	port int

	conn net.Conn

	state connState

	// inboundMu guards readBuf and readErr, the only fields the
	// reader goroutine writes and the event loop reads.
	inboundMu sync.Mutex
	readBuf   []byte
	readErr   error

	// leftover holds bytes read but not yet forming a complete frame,
	// touched only by the event loop thread.
	leftover []byte

	pending map[ClientDataHandle]*PendingCall

	queuedBytes             int
	backpressure            bool
	backpressurePermitBlock bool

	maxFrameSize int
	logger       *xlog.Logger
	wake         chan struct{}
}

func dialAndHandshake(host string, port int, useSSL bool, tlsConfig *tls.Config, username, password, serviceName string, dialTimeout time.Duration, logger *xlog.Logger) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	dialer := net.Dialer{Timeout: dialTimeout}
	raw, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, errConnectFailure(err, "dialing "+addr)
	}

	var conn net.Conn = raw
	if useSSL {
		cfg := tlsConfig
		if cfg == nil {
			cfg = &tls.Config{InsecureSkipVerify: true}
		}
		tlsConn := tls.Client(raw, cfg)
		if dialTimeout > 0 {
			tlsConn.SetDeadline(time.Now().Add(dialTimeout))
		}
		if err := tlsConn.Handshake(); err != nil {
			raw.Close()
			return nil, errConnectFailure(err, "TLS handshake with "+addr)
		}
		conn = tlsConn
	}

	if dialTimeout > 0 {
		conn.SetDeadline(time.Now().Add(dialTimeout))
	}

	loginReq := wire.EncodeLoginRequest(serviceName, username, password)
	if _, err := conn.Write(loginReq); err != nil {
		conn.Close()
		return nil, errConnectFailure(err, "writing login request to "+addr)
	}

	header := make([]byte, wire.FrameHeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		conn.Close()
		return nil, errConnectFailure(err, "reading login response header from "+addr)
	}
	length := int(header[0])<<24 | int(header[1])<<16 | int(header[2])<<8 | int(header[3])
	payload := make([]byte, length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		conn.Close()
		return nil, errConnectFailure(err, "reading login response payload from "+addr)
	}

	loginResp, err := wire.DecodeLoginResponse(payload)
	if err != nil {
		conn.Close()
		return nil, errConnectFailure(err, "decoding login response from "+addr)
	}
	if loginResp.AuthCode != 0 {
		conn.Close()
		return nil, errConnectFailure(fmt.Errorf("server rejected credentials (auth code %d)", loginResp.AuthCode), "authenticating to "+addr)
	}

	if dialTimeout > 0 {
		conn.SetDeadline(time.Time{})
	}

	logger.Transport().Info("connected", "host", host, "port", port, "buildString", loginResp.BuildString)
	return conn, nil
}

func newConnection(conn net.Conn, host string, port int, maxFrameSize int, logger *xlog.Logger, wake chan struct{}) *Connection {
	return &Connection{
		host:         host,
		port:         port,
		conn:         conn,
		state:        connReady,
		pending:      make(map[ClientDataHandle]*PendingCall),
		maxFrameSize: maxFrameSize,
		logger:       logger,
		wake:         wake,
	}
}

// start launches the background reader goroutine. Must be called
// exactly once, after the Connection has been registered with its
// owning Client.
func (c *Connection) start() {
	go c.readerLoop()
}

func (c *Connection) readerLoop() {
	buf := make([]byte, 65536)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.inboundMu.Lock()
			c.readBuf = append(c.readBuf, chunk...)
			c.inboundMu.Unlock()
			notifyNonBlocking(c.wake)
		}
		if err != nil {
			c.inboundMu.Lock()
			if c.readErr == nil {
				c.readErr = err
			}
			c.inboundMu.Unlock()
			notifyNonBlocking(c.wake)
			return
		}
	}
}

func notifyNonBlocking(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// takeInbound atomically removes and returns everything the reader
// goroutine has appended since the last call, plus a sticky error if
// the socket has failed or reached EOF.
func (c *Connection) takeInbound() ([]byte, error) {
	c.inboundMu.Lock()
	defer c.inboundMu.Unlock()
	data := c.readBuf
	c.readBuf = nil
	return data, c.readErr
}

// extractFrames pulls complete frames out of the connection's
// leftover buffer plus newly arrived bytes, calling emit for each in
// order. emit returns whether to keep extracting further frames from
// this connection right now; returning false leaves any remaining
// bytes in leftover for the next call. Returns a protocol error if a
// frame's declared length exceeds maxFrameSize.
func (c *Connection) extractFrames(newData []byte, emit func(payload []byte) bool) error {
	if len(newData) > 0 {
		c.leftover = append(c.leftover, newData...)
	}
	for {
		frame, consumed, err := wire.TryExtractFrame(c.leftover, c.maxFrameSize)
		if err != nil {
			return err
		}
		if consumed == 0 {
			return nil
		}
		payload := make([]byte, len(frame))
		copy(payload, frame)
		c.leftover = c.leftover[consumed:]
		if !emit(payload) {
			return nil
		}
	}
}

// enqueueAndFlush serializes and synchronously writes a request frame.
// Writes happen on the event-loop thread: this library trades a fully
// non-blocking write path for the simplicity of never needing a
// separate writer goroutine or partial-write bookkeeping.
func (c *Connection) enqueueAndFlush(frame []byte) error {
	c.queuedBytes += len(frame)
	_, err := c.conn.Write(frame)
	c.queuedBytes -= len(frame)
	if err != nil {
		return errIoFailure(err, "writing to "+c.host)
	}
	return nil
}

// outstanding returns the number of pending calls on this connection.
func (c *Connection) outstanding() int { return len(c.pending) }

// overThreshold reports whether this connection currently exceeds
// either backpressure threshold. Strict greater-than: the call that
// pushes the count exactly to the threshold is still let through, and
// only the next one crosses it.
func (c *Connection) overThreshold(maxOutstanding, maxQueuedBytes int) bool {
	return c.outstanding() > maxOutstanding || c.queuedBytes > maxQueuedBytes
}

// close tears down the socket. Idempotent.
func (c *Connection) close() {
	if c.state == connClosed {
		return
	}
	c.state = connClosed
	c.conn.Close()
}
