package client

// StatusListener receives connection lifecycle and backpressure
// notifications that are not tied to any single invocation. A Client
// with no listener installed simply drops these notifications.
type StatusListener interface {
	// ConnectionLost is called once per connection when it is lost to
	// a read, write or protocol failure, with the number of pending
	// calls that were failed with a synthesized StatusConnectionLost
	// response as a result. Client.Close does not call it.
	ConnectionLost(hostname string, connectionsLeft int, pendingFailed int)

	// Backpressure is called whenever a connection crosses into or out
	// of backpressure, per the hysteresis thresholds in the Client's
	// configuration. Its return value matters only when active is
	// true: it decides whether Invoke may suspend the caller's event
	// loop locally until backpressure clears (true) or must return a
	// BackpressureRejected error to the caller instead (false).
	Backpressure(hostname string, active bool) bool

	// UncaughtException is called when a ProcedureCallback panics
	// while handling a response; the panic is recovered and surfaced
	// here rather than crashing the event loop.
	UncaughtException(handle ClientDataHandle, recovered interface{})
}

// NoopStatusListener implements StatusListener with no-op methods. It
// is the default listener for a Client created without one; its
// Backpressure always permits suspending, matching the behavior of
// having no listener registered at all.
type NoopStatusListener struct{}

func (NoopStatusListener) ConnectionLost(hostname string, connectionsLeft, pendingFailed int) {}
func (NoopStatusListener) Backpressure(hostname string, active bool) bool                     { return true }
func (NoopStatusListener) UncaughtException(handle ClientDataHandle, recovered interface{})   {}
