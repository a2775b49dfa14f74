// Package client implements the procdb wire-protocol client: a
// single-threaded connection dispatcher and cooperative event loop
// driven by the application, rather than by a background thread.
//
// A typical user creates a Client, adds one or more connections with
// CreateConnection, submits procedure invocations with Invoke or
// InvokeSync, and periodically calls Run, RunOnce, or Drain from its
// own main loop to let pending responses arrive and their callbacks
// fire.
package client

// ConnectionCount returns the number of connections currently held by
// the Client, regardless of state.
func (cl *Client) ConnectionCount() int {
	return len(cl.connections)
}

// ReadyConnectionCount returns the number of connections currently in
// the Ready state.
func (cl *Client) ReadyConnectionCount() int {
	n := 0
	for _, c := range cl.connections {
		if c.state == connReady {
			n++
		}
	}
	return n
}

// Outstanding returns the total number of invocations awaiting a
// response across every connection.
func (cl *Client) Outstanding() int {
	n := 0
	for _, c := range cl.connections {
		n += c.outstanding()
	}
	return n
}
