package client

import (
	"github.com/ha1tch/procdb/wire"
)

// StatusCode is an invocation's top-level outcome, mirroring the
// server's own small fixed vocabulary rather than an open set of
// application error codes.
type StatusCode int8

const (
	StatusSuccess            StatusCode = 1
	StatusUserAbort          StatusCode = -1
	StatusGracefulFailure    StatusCode = -2
	StatusUnexpectedFailure  StatusCode = -3
	StatusConnectionLost     StatusCode = -4
)

func (s StatusCode) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUserAbort:
		return "USER_ABORT"
	case StatusGracefulFailure:
		return "GRACEFUL_FAILURE"
	case StatusUnexpectedFailure:
		return "UNEXPECTED_FAILURE"
	case StatusConnectionLost:
		return "CONNECTION_LOST"
	default:
		return "UNKNOWN"
	}
}

// ConnectionLostMessage is the default status string carried by a
// synthesized CONNECTION_LOST response, matching the message the
// original client library uses for its default-constructed response.
const ConnectionLostMessage = "Connection to the database was lost"

// DefaultAppStatusCode is the sentinel app status code (INT8_MIN) a
// default-constructed response carries before a server ever sets one.
const DefaultAppStatusCode = int8(-128)

// InvocationResponse is the public result of a procedure invocation: a
// status outcome plus zero or more opaque result tables. A response
// with StatusCode() == StatusConnectionLost never came from the wire;
// it is synthesized locally when the connection carrying a pending
// call is lost before the server replies.
type InvocationResponse struct {
	clientData    ClientDataHandle
	statusCode    StatusCode
	statusString  string
	appStatusCode int8
	appStatusString string
	roundTripTime int32
	tables        []wire.RawTable
}

// connectionLostResponse synthesizes the response delivered to a
// pending call whose connection was lost, or whose owning connection
// never existed in the first place.
func connectionLostResponse(handle ClientDataHandle) *InvocationResponse {
	return &InvocationResponse{
		clientData:    handle,
		statusCode:    StatusConnectionLost,
		statusString:  ConnectionLostMessage,
		appStatusCode: DefaultAppStatusCode,
	}
}

func responseFromDTO(handle ClientDataHandle, dto *wire.ResponseDTO) *InvocationResponse {
	return &InvocationResponse{
		clientData:      handle,
		statusCode:      StatusCode(dto.StatusCode),
		statusString:    dto.StatusString,
		appStatusCode:   dto.AppStatusCode,
		appStatusString: dto.AppStatusString,
		roundTripTime:   dto.ClusterRoundTripTime,
		tables:          dto.Tables,
	}
}

// ClientData returns the handle this response answers.
func (r *InvocationResponse) ClientData() ClientDataHandle { return r.clientData }

// Success reports whether the invocation completed with StatusSuccess.
func (r *InvocationResponse) Success() bool { return r.statusCode == StatusSuccess }

// StatusCode returns the top-level outcome of the invocation.
func (r *InvocationResponse) StatusCode() StatusCode { return r.statusCode }

// StatusString returns the human-readable status message, if any.
func (r *InvocationResponse) StatusString() string { return r.statusString }

// AppStatusCode returns the application-defined status code a stored
// procedure may set, independent of StatusCode.
func (r *InvocationResponse) AppStatusCode() int8 { return r.appStatusCode }

// AppStatusString returns the application-defined status message.
func (r *InvocationResponse) AppStatusString() string { return r.appStatusString }

// ClusterRoundTripTime returns the server-measured processing time in
// milliseconds.
func (r *InvocationResponse) ClusterRoundTripTime() int32 { return r.roundTripTime }

// Results returns the invocation's result tables, in declared order.
// Each table shares backing storage with the frame payload it was
// parsed from; that payload is a copy made for this frame alone, so
// the tables stay valid after later reads on the same connection.
func (r *InvocationResponse) Results() []wire.RawTable { return r.tables }
