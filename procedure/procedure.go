// Package procedure implements the stored-procedure parameter model: a
// reusable, named parameter vector that is eagerly serialized into an
// outbound invocation buffer once every declared slot has been bound.
package procedure

import (
	"github.com/ha1tch/procdb/internal/xerrors"
	"github.com/ha1tch/procdb/wire"
)

const maxNameBytes = 255

// Procedure is a named stored procedure invocation: an ordered parameter
// list whose slots may be rewritten between invocations. A Procedure is
// not safe for concurrent use, matching the single-threaded affiliation
// of the client handle that submits it.
type Procedure struct {
	name   string
	values []wire.Value
	bound  []bool
}

// New creates a Procedure with the given name and a fixed number of
// parameter slots. name must be non-empty UTF-8 of at most 255 bytes.
func New(name string, arity int) (*Procedure, error) {
	if len(name) == 0 || len(name) > maxNameBytes {
		return nil, xerrors.Newf(xerrors.ErrCodeMisuse,
			"procedure name must be 1-%d bytes, got %d", maxNameBytes, len(name)).Build()
	}
	if arity < 0 {
		return nil, xerrors.Newf(xerrors.ErrCodeMisuse, "negative arity %d", arity).Build()
	}
	return &Procedure{
		name:   name,
		values: make([]wire.Value, arity),
		bound:  make([]bool, arity),
	}, nil
}

// Name returns the procedure's name.
func (p *Procedure) Name() string { return p.name }

// Arity returns the number of declared parameter slots.
func (p *Procedure) Arity() int { return len(p.values) }

// SetParam rewrites the value bound to slot index. Slots may be rewritten
// any number of times between invocations; once set, a slot stays bound.
func (p *Procedure) SetParam(index int, v wire.Value) error {
	if index < 0 || index >= len(p.values) {
		return xerrors.Newf(xerrors.ErrCodeMisuse,
			"parameter index %d out of range [0,%d)", index, len(p.values)).Build()
	}
	p.values[index] = v
	p.bound[index] = true
	return nil
}

// fullyBound reports whether every declared slot has been bound at least once.
func (p *Procedure) fullyBound() bool {
	for _, b := range p.bound {
		if !b {
			return false
		}
	}
	return true
}

// Params returns the currently bound parameter values, in slot order.
// Only meaningful once fullyBound returns true.
func (p *Procedure) Params() []wire.Value {
	out := make([]wire.Value, len(p.values))
	copy(out, p.values)
	return out
}

// Serialize eagerly encodes the invocation request frame for this
// procedure with the given client-data handle. It fails with
// UninitializedParams if any declared slot has never been bound.
func (p *Procedure) Serialize(clientData int64) ([]byte, error) {
	if !p.fullyBound() {
		return nil, xerrors.Newf(xerrors.ErrCodeUninitializedParams,
			"procedure %q submitted with unbound parameter slots", p.name).Build()
	}
	return wire.EncodeInvocationRequest(p.name, clientData, p.Params()), nil
}
