package client

import "time"

// PendingCall tracks one in-flight invocation awaiting a response.
type PendingCall struct {
	Handle     ClientDataHandle
	Callback   ProcedureCallback
	Connection *Connection
	SubmitTime time.Time
}
