package procedure

import (
	"strings"
	"testing"

	"github.com/ha1tch/procdb/wire"
)

func TestNew_ValidatesName(t *testing.T) {
	if _, err := New("", 0); err == nil {
		t.Error("New(\"\", 0): want error for empty name")
	}
	if _, err := New(strings.Repeat("x", 256), 0); err == nil {
		t.Error("New() with 256-byte name: want error")
	}
	if _, err := New("Ok", -1); err == nil {
		t.Error("New() with negative arity: want error")
	}
	if _, err := New("Ok", 2); err != nil {
		t.Fatalf("New() with valid args: %v", err)
	}
}

func TestSerialize_UninitializedParams(t *testing.T) {
	p, err := New("AddCustomer", 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Serialize(1); err == nil {
		t.Fatal("Serialize() with no bound params: want UninitializedParams error")
	}
	if err := p.SetParam(0, wire.String("acme")); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Serialize(1); err == nil {
		t.Fatal("Serialize() with one of two slots bound: want UninitializedParams error")
	}
}

func TestSerialize_FullyBound(t *testing.T) {
	p, err := New("AddCustomer", 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetParam(0, wire.String("acme")); err != nil {
		t.Fatal(err)
	}
	if err := p.SetParam(1, wire.Integer(42)); err != nil {
		t.Fatal(err)
	}
	frame, err := p.Serialize(7)
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) == 0 {
		t.Fatal("Serialize() returned an empty frame")
	}
}

func TestSetParam_RewritesSlot(t *testing.T) {
	p, err := New("Echo", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetParam(0, wire.Integer(1)); err != nil {
		t.Fatal(err)
	}
	if err := p.SetParam(0, wire.Integer(2)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Serialize(1); err != nil {
		t.Fatalf("Serialize() after rewrite: %v", err)
	}
	if p.Params()[0].I32 != 2 {
		t.Errorf("Params()[0].I32 = %d, want 2", p.Params()[0].I32)
	}
}

func TestSetParam_OutOfRange(t *testing.T) {
	p, err := New("Echo", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetParam(5, wire.Integer(1)); err == nil {
		t.Error("SetParam(5, ...) on arity-1 procedure: want error")
	}
}
