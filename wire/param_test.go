package wire

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEncodeDecodeValue_Scalars(t *testing.T) {
	now := time.Now().UTC().Round(time.Microsecond)
	values := []Value{
		TinyInt(-5),
		SmallInt(1000),
		Integer(-70000),
		BigInt(1 << 40),
		Float(3.14159),
		String("hello"),
		NullString(),
		Varbinary([]byte{1, 2, 3}),
		DecimalValue(decimal.RequireFromString("12.50")),
		Timestamp(now),
	}
	for _, v := range values {
		t.Run(v.Type.String(), func(t *testing.T) {
			buf := NewWriteBuffer(32)
			if err := EncodeValue(buf, v); err != nil {
				t.Fatal(err)
			}
			read := NewBuffer(buf.Bytes())
			got, err := DecodeValue(read)
			if err != nil {
				t.Fatal(err)
			}
			if got.Type != v.Type {
				t.Fatalf("Type = %v, want %v", got.Type, v.Type)
			}
		})
	}
}

func TestEncodeDecodeValue_Array(t *testing.T) {
	v := IntegerArray([]int32{1, 2, 3, -4})
	buf := NewWriteBuffer(32)
	if err := EncodeValue(buf, v); err != nil {
		t.Fatal(err)
	}
	read := NewBuffer(buf.Bytes())
	got, err := DecodeValue(read)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsArray || len(got.Array) != 4 {
		t.Fatalf("got = %+v", got)
	}
	for i, want := range []int32{1, 2, 3, -4} {
		if got.Array[i].I32 != want {
			t.Errorf("Array[%d] = %d, want %d", i, got.Array[i].I32, want)
		}
	}
}

func TestParamType_String(t *testing.T) {
	if ParamTypeArray.String() != "ARRAY" {
		t.Errorf("ParamTypeArray.String() = %q, want %q", ParamTypeArray.String(), "ARRAY")
	}
	if ParamType(127).String() != "UNKNOWN" {
		t.Errorf("unknown type String() = %q, want UNKNOWN", ParamType(127).String())
	}
}
