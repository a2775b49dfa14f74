package client

import "time"

// idlePollInterval bounds how long Run blocks between checks when no
// connection has signaled new data, so a break flag set from within a
// callback is noticed promptly even with no I/O activity.
const idlePollInterval = 200 * time.Millisecond

// pumpOnce drains every connection's inbound buffer once, dispatching
// any complete frames found, and reports whether any bytes were
// processed. If wait is nonzero and nothing was immediately available,
// it blocks up to wait for the wake channel before giving up.
func (cl *Client) pumpOnce(wait time.Duration) bool {
	did := false
	for _, conn := range cl.connections {
		if cl.breakFlag {
			break
		}
		if conn.state == connClosed {
			continue
		}
		data, readErr := conn.takeInbound()
		if len(data) > 0 {
			did = true
		}
		// extractFrames runs even with no new bytes: a break can leave a
		// fully-formed frame sitting in leftover from a prior call, and
		// that frame must still surface without waiting for more I/O.
		err := conn.extractFrames(data, func(payload []byte) bool {
			did = true
			cl.onResponse(conn, payload)
			return !cl.breakFlag
		})
		if err != nil {
			cl.failConnection(conn, err)
			continue
		}
		if readErr != nil {
			cl.failConnection(conn, errIoFailure(readErr, "reading from "+conn.host))
		}
	}
	if did || wait <= 0 || cl.breakFlag {
		return did
	}
	select {
	case <-cl.wake:
		return cl.pumpOnce(0)
	case <-time.After(wait):
		return false
	}
}

// RunOnce performs one non-blocking pump of every connection: it
// processes whatever frames are currently available, dispatches their
// callbacks, and returns immediately regardless of whether any work
// was found. Fails with NoConnections if no connection is Ready.
func (cl *Client) RunOnce() error {
	if !cl.anyReady() {
		return errNoConnections()
	}
	cl.breakFlag = false
	cl.pumpOnce(0)
	return nil
}

// Run pumps the event loop until a callback breaks the loop, or until
// no connection remains in the Ready state. Fails with NoConnections
// if no connection is Ready when called.
func (cl *Client) Run() error {
	if !cl.anyReady() {
		return errNoConnections()
	}
	cl.breakFlag = false
	for {
		if cl.breakFlag {
			cl.breakFlag = false
			return nil
		}
		if !cl.anyReady() {
			return nil
		}
		cl.pumpOnce(idlePollInterval)
	}
}

// Drain pumps the event loop until every connection has no pending
// calls left, or until a callback breaks the loop, or until no
// connection remains Ready. Returns false if it returned because of a
// break, otherwise true if every call was answered. Fails with
// NoConnections if no connection is Ready when called.
func (cl *Client) Drain() (bool, error) {
	if !cl.anyReady() {
		return false, errNoConnections()
	}
	cl.breakFlag = false
	for {
		if cl.breakFlag {
			cl.breakFlag = false
			return false, nil
		}
		if cl.allPendingEmpty() {
			return true, nil
		}
		if !cl.anyReady() {
			return cl.allPendingEmpty(), nil
		}
		cl.pumpOnce(idlePollInterval)
	}
}

// Break requests that the Run or Drain call currently in progress
// return as soon as it notices, without waiting for work to settle.
// Safe to call from within a ProcedureCallback. Run, RunOnce and
// Drain clear the flag on entry, so a Break made while no loop is
// running does not carry over to the next one.
func (cl *Client) Break() {
	cl.breakFlag = true
}

// Close tears down every connection. Further Invoke calls fail with a
// misuse error.
func (cl *Client) Close() error {
	cl.closed = true
	for _, c := range cl.connections {
		c.close()
	}
	return nil
}
