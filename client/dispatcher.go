package client

import (
	"sort"
	"time"

	"github.com/ha1tch/procdb/procedure"
	"github.com/ha1tch/procdb/wire"
)

// Client is the single-threaded handle applications hold: it owns a
// round-robin set of connections to cluster nodes, allocates
// ClientDataHandles, and routes each arriving response back to the
// callback that submitted it. A Client is not safe for concurrent
// use — every method, including CreateConnection and the event-loop
// drivers, must be called from the one goroutine that owns it. The
// reader goroutine each Connection spawns is the sole exception: it
// only ever appends to a mutex-guarded buffer and never touches
// dispatcher state.
type Client struct {
	cfg Config

	connections []*Connection
	cursor      int
	nextHandle  uint64

	wake      chan struct{}
	breakFlag bool

	closed bool
}

// Create constructs a Client with no connections yet. Use
// CreateConnection to add one.
func Create(cfg Config) *Client {
	cfg.normalize()
	return &Client{
		cfg:  cfg,
		wake: make(chan struct{}, 1),
	}
}

// CreateConnection dials host:port, completes the login handshake
// synchronously, and adds the resulting connection to the Client's
// round-robin set. serviceName is usually wire.ServiceDatabase.
func (cl *Client) CreateConnection(host string, port int, useSSL bool, serviceName string) error {
	if serviceName == "" {
		serviceName = "database"
	}
	conn, err := dialAndHandshake(host, port, useSSL, cl.cfg.TLSConfig, cl.cfg.Username, cl.cfg.Password, serviceName, cl.cfg.DialTimeout, cl.cfg.Logger)
	if err != nil {
		return err
	}

	c := newConnection(conn, host, port, cl.cfg.MaxFrameSize, cl.cfg.Logger, cl.wake)
	cl.connections = append(cl.connections, c)
	c.start()
	return nil
}

// nextClientData allocates the next ClientDataHandle, unique for the
// lifetime of this Client.
func (cl *Client) nextClientData() ClientDataHandle {
	cl.nextHandle++
	return ClientDataHandle(cl.nextHandle)
}

// pickConnection selects the next Ready connection in round-robin
// order, skipping only Draining and Closed connections. Backpressure
// does not remove a connection from rotation: it is handled after
// submission, inside Invoke.
func (cl *Client) pickConnection() *Connection {
	n := len(cl.connections)
	if n == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		idx := (cl.cursor + i) % n
		c := cl.connections[idx]
		if c.state != connReady {
			continue
		}
		cl.cursor = (idx + 1) % n
		return c
	}
	return nil
}

// anyReady reports whether at least one connection is Ready,
// regardless of backpressure.
func (cl *Client) anyReady() bool {
	for _, c := range cl.connections {
		if c.state == connReady {
			return true
		}
	}
	return false
}

// Invoke submits p asynchronously, round-robining across Ready
// connections regardless of backpressure. callback is invoked exactly
// once, with either the server's response or a synthesized
// StatusConnectionLost response if the chosen connection dies first.
// It normally fires from a later pump of the event loop; if writing
// the request fails, the connection is failed and callback receives
// StatusConnectionLost before Invoke returns.
//
// Invoke always records and sends the call before checking
// backpressure. If the connection is over threshold afterward, the
// registered StatusListener decides what happens next: if it declines
// to permit blocking, Invoke returns a BackpressureRejected error
// (the call was still sent); otherwise Invoke suspends, pumping this
// Client's own event loop, until the connection falls back under
// threshold.
func (cl *Client) Invoke(p *procedure.Procedure, callback ProcedureCallback) (ClientDataHandle, error) {
	if cl.closed {
		return 0, errMisuse("Invoke called after Close")
	}
	conn := cl.pickConnection()
	if conn == nil {
		return 0, errNoConnections()
	}

	handle := cl.nextClientData()
	frame, err := p.Serialize(int64(handle))
	if err != nil {
		return 0, err
	}

	pc := &PendingCall{Handle: handle, Callback: callback, Connection: conn, SubmitTime: time.Now()}
	conn.pending[handle] = pc

	if err := conn.enqueueAndFlush(frame); err != nil {
		cl.failConnection(conn, err)
		return handle, nil
	}

	return handle, cl.handleBackpressure(conn)
}

// handleBackpressure implements the post-submission half of Invoke's
// backpressure policy described above.
func (cl *Client) handleBackpressure(conn *Connection) error {
	over := conn.overThreshold(cl.cfg.MaxOutstandingPerConnection, cl.cfg.MaxQueuedBytesPerConnection)
	if !over {
		if conn.backpressure {
			conn.backpressure = false
			cl.cfg.Listener.Backpressure(conn.host, false)
		}
		return nil
	}

	if !conn.backpressure {
		conn.backpressure = true
		conn.backpressurePermitBlock = cl.cfg.Listener.Backpressure(conn.host, true)
	}
	if !conn.backpressurePermitBlock {
		return errBackpressureRejected()
	}

	for conn.overThreshold(cl.cfg.MaxOutstandingPerConnection, cl.cfg.MaxQueuedBytesPerConnection) && conn.state == connReady {
		cl.pumpOnce(idlePollInterval)
	}
	return nil
}

// InvokeSync submits p and blocks the calling goroutine, pumping this
// Client's event loop itself, until the matching response arrives or
// the connection it was sent on is lost. It must not be called from
// within a ProcedureCallback.
func (cl *Client) InvokeSync(p *procedure.Procedure, timeout time.Duration) (*InvocationResponse, error) {
	var result *InvocationResponse
	done := make(chan struct{})
	_, err := cl.Invoke(p, CallbackFunc(func(resp *InvocationResponse) bool {
		result = resp
		close(done)
		return false
	}))
	if err != nil {
		return nil, err
	}

	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		select {
		case <-done:
			return result, nil
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, errIoFailure(nil, "InvokeSync timed out waiting for response")
		}
		cl.pumpOnce(50 * time.Millisecond)
	}
}

// onResponse routes one decoded invocation response payload from conn
// to its pending callback, recovering from and reporting any panic
// the callback raises.
func (cl *Client) onResponse(conn *Connection, payload []byte) {
	dto, err := wire.DecodeInvocationResponse(payload)
	if err != nil {
		cl.cfg.Logger.Protocol().Error("malformed invocation response", err, "host", conn.host)
		cl.failConnection(conn, err)
		return
	}

	handle := ClientDataHandle(dto.ClientData)
	pc, ok := conn.pending[handle]
	if !ok {
		cl.cfg.Logger.Dispatch().Warn("response for unknown handle", "host", conn.host, "handle", handle)
		return
	}
	delete(conn.pending, handle)

	if conn.backpressure && !conn.overThreshold(cl.cfg.MaxOutstandingPerConnection, cl.cfg.MaxQueuedBytesPerConnection) {
		conn.backpressure = false
		cl.cfg.Listener.Backpressure(conn.host, false)
	}

	cl.invokeCallback(pc, responseFromDTO(handle, dto))
}

func (cl *Client) invokeCallback(pc *PendingCall, resp *InvocationResponse) {
	defer func() {
		if r := recover(); r != nil {
			cl.cfg.Listener.UncaughtException(pc.Handle, r)
		}
	}()
	if pc.Callback.OnResponse(resp) {
		cl.breakFlag = true
	}
}

// failConnection transitions conn to Closed, fails every pending call
// on it with a synthesized CONNECTION_LOST response, and notifies the
// listener.
func (cl *Client) failConnection(conn *Connection, cause error) {
	if conn.state == connClosed {
		return
	}
	conn.close()

	failed := len(conn.pending)
	ordered := make([]*PendingCall, 0, failed)
	for _, pc := range conn.pending {
		ordered = append(ordered, pc)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SubmitTime.Before(ordered[j].SubmitTime)
	})
	for _, pc := range ordered {
		cl.invokeCallback(pc, connectionLostResponse(pc.Handle))
	}
	conn.pending = make(map[ClientDataHandle]*PendingCall)

	left := 0
	for _, c := range cl.connections {
		if c.state == connReady {
			left++
		}
	}
	cl.cfg.Logger.Transport().Warn("connection lost", "host", conn.host, "cause", errString(cause), "pendingFailed", failed)
	cl.cfg.Listener.ConnectionLost(conn.host, left, failed)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// allPendingEmpty reports whether no connection has a call awaiting a
// response.
func (cl *Client) allPendingEmpty() bool {
	for _, c := range cl.connections {
		if len(c.pending) > 0 {
			return false
		}
	}
	return true
}
