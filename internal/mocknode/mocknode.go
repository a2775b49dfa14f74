// Package mocknode implements a minimal in-process cluster node used
// only by tests: it accepts TCP connections, speaks the login and
// invocation framing from the wire package, and executes registered
// procedures against a real SQLite database rather than a fake in
// memory table, so the client's decimal, timestamp, and varbinary
// codecs are exercised against an actual round trip.
package mocknode

import (
	"database/sql"
	"io"
	"net"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ha1tch/procdb/wire"
)

// Handler executes one registered procedure against db and returns
// the response to send back. A returned error is sent back as an
// UNEXPECTED_FAILURE (-3) response carrying the error text; the
// connection stays open.
type Handler func(db *sql.DB, req *wire.DecodedInvocationRequest) (*wire.ResponseDTO, error)

// Node is a fake cluster node bound to a loopback TCP listener.
type Node struct {
	ln       net.Listener
	db       *sql.DB
	handlers map[string]Handler

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	closed   bool
	authFail bool // when true, every login attempt is rejected
}

// New opens an in-memory SQLite database and a loopback TCP listener,
// but does not yet accept connections; call Serve to start accepting.
func New() (*Node, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Node{ln: ln, db: db, handlers: make(map[string]Handler), conns: make(map[net.Conn]struct{})}, nil
}

// Addr returns the "host:port" the node is listening on.
func (n *Node) Addr() string { return n.ln.Addr().String() }

// DB exposes the underlying database so tests can seed schema and
// rows before registering handlers that read them.
func (n *Node) DB() *sql.DB { return n.db }

// Register binds a stored procedure name to a handler.
func (n *Node) Register(name string, h Handler) {
	n.handlers[name] = h
}

// RejectLogins makes every future login attempt fail authentication,
// used to test ConnectFailure paths.
func (n *Node) RejectLogins() { n.authFail = true }

// Serve accepts connections until Close is called. Meant to run in
// its own goroutine.
func (n *Node) Serve() {
	for {
		conn, err := n.ln.Accept()
		if err != nil {
			return
		}
		n.mu.Lock()
		n.conns[conn] = struct{}{}
		n.mu.Unlock()
		go n.handleConn(conn)
	}
}

// Close stops accepting new connections and forcibly closes every
// connection currently accepted, simulating the node vanishing rather
// than draining gracefully — it does not wait for a registered Handler
// blocked on unrelated test state to return, since nothing here can
// reach into one to cancel it.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	conns := make([]net.Conn, 0, len(n.conns))
	for c := range n.conns {
		conns = append(conns, c)
	}
	n.mu.Unlock()

	err := n.ln.Close()
	for _, c := range conns {
		c.Close()
	}
	n.db.Close()
	return err
}

func (n *Node) handleConn(conn net.Conn) {
	defer func() {
		n.mu.Lock()
		delete(n.conns, conn)
		n.mu.Unlock()
		conn.Close()
	}()

	if err := n.doLogin(conn); err != nil {
		return
	}

	for {
		payload, err := readFrame(conn)
		if err != nil {
			return
		}
		req, err := wire.DecodeInvocationRequest(payload)
		if err != nil {
			return
		}
		resp := n.dispatch(req)
		if _, err := conn.Write(wire.EncodeInvocationResponse(resp)); err != nil {
			return
		}
	}
}

func (n *Node) doLogin(conn net.Conn) error {
	payload, err := readFrame(conn)
	if err != nil {
		return err
	}
	_ = payload // login request contents aren't inspected; only success/failure is simulated

	authCode := int8(0)
	if n.authFail {
		authCode = 1
	}
	resp := &wire.LoginResponse{
		Version:      wire.LoginVersion,
		AuthCode:     authCode,
		BuildString:  "mocknode",
	}
	if _, err := conn.Write(wire.EncodeLoginResponse(resp)); err != nil {
		return err
	}
	if authCode != 0 {
		return io.EOF
	}
	return nil
}

func (n *Node) dispatch(req *wire.DecodedInvocationRequest) *wire.ResponseDTO {
	h, ok := n.handlers[req.ProcName]
	if !ok {
		return &wire.ResponseDTO{
			ClientData:   req.ClientData,
			StatusCode:   -2,
			StatusString: "procedure not found: " + req.ProcName,
		}
	}
	resp, err := h(n.db, req)
	if err != nil {
		return &wire.ResponseDTO{
			ClientData:   req.ClientData,
			StatusCode:   -3,
			StatusString: err.Error(),
		}
	}
	resp.ClientData = req.ClientData
	return resp
}

func readFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, wire.FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := int(header[0])<<24 | int(header[1])<<16 | int(header[2])<<8 | int(header[3])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
