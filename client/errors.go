package client

import "github.com/ha1tch/procdb/internal/xerrors"

// errNoConnections builds the error returned when a submission has no
// Ready connection to route to.
func errNoConnections() error {
	return xerrors.New(xerrors.ErrCodeNoConnections, "no ready connections available").Build()
}

// errBackpressureRejected builds the error returned when the connection
// a call was just sent on is over its backpressure threshold and the
// StatusListener declined to let Invoke block until it clears.
func errBackpressureRejected() error {
	return xerrors.New(xerrors.ErrCodeBackpressureRejected, "connection is under backpressure").Build()
}

// errMisuse builds a caller-misuse error, e.g. invoking after Close.
func errMisuse(msg string) error {
	return xerrors.New(xerrors.ErrCodeMisuse, msg).Build()
}

// errConnectFailure wraps a dial or handshake failure.
func errConnectFailure(cause error, msg string) error {
	return xerrors.Wrap(cause, xerrors.ErrCodeConnectFailure, msg).Build()
}

// errIoFailure wraps a post-handshake socket failure.
func errIoFailure(cause error, msg string) error {
	return xerrors.Wrap(cause, xerrors.ErrCodeIoFailure, msg).Build()
}

// IsNoConnections reports whether err is the no-ready-connections error.
func IsNoConnections(err error) bool { return xerrors.IsCode(err, xerrors.ErrCodeNoConnections) }

// IsUninitializedParams reports whether err is an unbound-parameter error.
func IsUninitializedParams(err error) bool {
	return xerrors.IsCode(err, xerrors.ErrCodeUninitializedParams)
}

// IsConnectFailure reports whether err is a connect/handshake failure.
func IsConnectFailure(err error) bool { return xerrors.IsCode(err, xerrors.ErrCodeConnectFailure) }

// IsIoFailure reports whether err is a post-handshake I/O failure.
func IsIoFailure(err error) bool { return xerrors.IsCode(err, xerrors.ErrCodeIoFailure) }

// IsProtocolError reports whether err is a malformed-wire-data error:
// any code in the protocol range, including oversized frames and
// buffer overruns.
func IsProtocolError(err error) bool { return xerrors.GetCode(err).Category() == "protocol" }

// IsBackpressureRejected reports whether err is a backpressure rejection.
func IsBackpressureRejected(err error) bool {
	return xerrors.IsCode(err, xerrors.ErrCodeBackpressureRejected)
}

// IsMisuse reports whether err is a caller-misuse error.
func IsMisuse(err error) bool { return xerrors.IsCode(err, xerrors.ErrCodeMisuse) }
