// Package xerrors provides structured error handling for the procdb client.
//
// Every error surfaced across a package boundary carries a numeric Code for
// programmatic handling, a Severity, optional context Fields, and supports
// wrapping so errors.Is/errors.As keep working through the chain.
//
// Codes follow a hierarchical scheme:
//   - 1xxx: connection / handshake errors
//   - 2xxx: wire protocol / framing errors
//   - 3xxx: submission-time errors (no connections, unbound params, backpressure)
//   - 4xxx: caller misuse (reentrancy, threading)
//   - 9xxx: internal errors
package xerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a numeric error code for programmatic handling.
type Code int

const (
	ErrCodeConnectFailure Code = 1001
	ErrCodeIoFailure      Code = 1002
	ErrCodeAuthFailed     Code = 1003

	ErrCodeProtocolError Code = 2001
	ErrCodeFrameTooLarge Code = 2002
	ErrCodeOverrun       Code = 2003

	ErrCodeNoConnections         Code = 3001
	ErrCodeUninitializedParams   Code = 3002
	ErrCodeBackpressureRejected  Code = 3003

	ErrCodeMisuse Code = 4001

	ErrCodeInternal Code = 9001
)

// String returns the error code as a string, e.g. "E1001".
func (c Code) String() string {
	return fmt.Sprintf("E%04d", c)
}

// Category returns the category name for this code.
func (c Code) Category() string {
	switch {
	case c >= 1000 && c < 2000:
		return "connection"
	case c >= 2000 && c < 3000:
		return "protocol"
	case c >= 3000 && c < 4000:
		return "submission"
	case c >= 4000 && c < 5000:
		return "misuse"
	case c >= 9000:
		return "internal"
	default:
		return "unknown"
	}
}

// Severity indicates error severity.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a structured error with a code, context fields, and optional cause.
type Error struct {
	Code     Code
	Message  string
	Severity Severity
	Fields   map[string]interface{}
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Code.String())
	buf.WriteString(": ")
	buf.WriteString(e.Message)
	if e.Cause != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Cause.Error())
	}
	return buf.String()
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithField adds a context field to the error.
func (e *Error) WithField(key string, value interface{}) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// Builder helps construct an Error fluently.
type Builder struct {
	code     Code
	message  string
	severity Severity
	cause    error
	fields   map[string]interface{}
}

// New starts building a new error with the given code.
func New(code Code, message string) *Builder {
	return &Builder{code: code, message: message, severity: SeverityError}
}

// Newf starts building a new error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Builder {
	return &Builder{code: code, message: fmt.Sprintf(format, args...), severity: SeverityError}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code Code, message string) *Builder {
	return &Builder{code: code, message: message, severity: SeverityError, cause: cause}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(cause error, code Code, format string, args ...interface{}) *Builder {
	return &Builder{code: code, message: fmt.Sprintf(format, args...), severity: SeverityError, cause: cause}
}

// SeverityLevel sets the error severity.
func (b *Builder) SeverityLevel(s Severity) *Builder {
	b.severity = s
	return b
}

// Critical sets severity to critical.
func (b *Builder) Critical() *Builder {
	b.severity = SeverityCritical
	return b
}

// WithCause adds a cause to the error.
func (b *Builder) WithCause(err error) *Builder {
	b.cause = err
	return b
}

// WithField adds a context field.
func (b *Builder) WithField(key string, value interface{}) *Builder {
	if b.fields == nil {
		b.fields = make(map[string]interface{})
	}
	b.fields[key] = value
	return b
}

// Build creates the Error.
func (b *Builder) Build() *Error {
	return &Error{
		Code:     b.code,
		Message:  b.message,
		Severity: b.severity,
		Cause:    b.cause,
		Fields:   b.fields,
	}
}

// Err is shorthand for Build() returning the error interface.
func (b *Builder) Err() error {
	return b.Build()
}

// GetCode extracts the error code from an error, or ErrCodeInternal if none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether the first *Error in err's chain carries the
// given code; codes of *Errors wrapped beneath that one are not checked.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// Is re-exports errors.Is for package-boundary convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As re-exports errors.As for package-boundary convenience.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
