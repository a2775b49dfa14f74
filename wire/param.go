package wire

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ha1tch/procdb/internal/xerrors"
)

// ParamType is the wire type tag for a scalar parameter or array
// component type.
type ParamType int8

// Scalar parameter type tags, as carried on the wire ahead of each
// parameter's value.
const (
	ParamTypeNull      ParamType = 1
	ParamTypeTinyInt   ParamType = 3  // int8
	ParamTypeSmallInt  ParamType = 4  // int16
	ParamTypeInteger   ParamType = 5  // int32
	ParamTypeBigInt    ParamType = 6  // int64
	ParamTypeFloat     ParamType = 8  // double
	ParamTypeString    ParamType = 9
	ParamTypeTimestamp ParamType = 11
	ParamTypeDecimal   ParamType = 22
	ParamTypeVarbinary ParamType = 25
	// ParamTypeArray prefixes an array parameter: the byte after it is
	// the component ParamType, followed by an int16 element count.
	ParamTypeArray ParamType = -99
)

func (t ParamType) String() string {
	switch t {
	case ParamTypeNull:
		return "NULL"
	case ParamTypeTinyInt:
		return "TINYINT"
	case ParamTypeSmallInt:
		return "SMALLINT"
	case ParamTypeInteger:
		return "INTEGER"
	case ParamTypeBigInt:
		return "BIGINT"
	case ParamTypeFloat:
		return "FLOAT"
	case ParamTypeString:
		return "STRING"
	case ParamTypeTimestamp:
		return "TIMESTAMP"
	case ParamTypeDecimal:
		return "DECIMAL"
	case ParamTypeVarbinary:
		return "VARBINARY"
	case ParamTypeArray:
		return "ARRAY"
	default:
		return "UNKNOWN"
	}
}

// Value is a tagged-union parameter or column value. Dispatch is by Type,
// not by an inheritance hierarchy: each constructor below populates the
// one field relevant to its tag.
type Value struct {
	Type    ParamType
	IsArray bool
	Null    bool

	I8   int8
	I16  int16
	I32  int32
	I64  int64
	F64  float64
	Str  string
	Bin  []byte
	Dec  decimal.Decimal
	Time time.Time

	Array []Value
}

// Scalar constructors.

func TinyInt(v int8) Value    { return Value{Type: ParamTypeTinyInt, I8: v} }
func SmallInt(v int16) Value  { return Value{Type: ParamTypeSmallInt, I16: v} }
func Integer(v int32) Value   { return Value{Type: ParamTypeInteger, I32: v} }
func BigInt(v int64) Value    { return Value{Type: ParamTypeBigInt, I64: v} }
func Float(v float64) Value   { return Value{Type: ParamTypeFloat, F64: v} }
func String(v string) Value   { return Value{Type: ParamTypeString, Str: v} }
func NullString() Value       { return Value{Type: ParamTypeString, Null: true} }
func Varbinary(v []byte) Value { return Value{Type: ParamTypeVarbinary, Bin: v} }
func NullVarbinary() Value    { return Value{Type: ParamTypeVarbinary, Null: true} }
func DecimalValue(v decimal.Decimal) Value { return Value{Type: ParamTypeDecimal, Dec: v} }
func NullDecimal() Value      { return Value{Type: ParamTypeDecimal, Null: true} }
func Timestamp(v time.Time) Value { return Value{Type: ParamTypeTimestamp, Time: v} }

// Array constructors: every element of elems must share the given
// component type.

func TinyIntArray(v []int8) Value {
	arr := make([]Value, len(v))
	for i, e := range v {
		arr[i] = TinyInt(e)
	}
	return Value{Type: ParamTypeTinyInt, IsArray: true, Array: arr}
}

func SmallIntArray(v []int16) Value {
	arr := make([]Value, len(v))
	for i, e := range v {
		arr[i] = SmallInt(e)
	}
	return Value{Type: ParamTypeSmallInt, IsArray: true, Array: arr}
}

func IntegerArray(v []int32) Value {
	arr := make([]Value, len(v))
	for i, e := range v {
		arr[i] = Integer(e)
	}
	return Value{Type: ParamTypeInteger, IsArray: true, Array: arr}
}

func BigIntArray(v []int64) Value {
	arr := make([]Value, len(v))
	for i, e := range v {
		arr[i] = BigInt(e)
	}
	return Value{Type: ParamTypeBigInt, IsArray: true, Array: arr}
}

func FloatArray(v []float64) Value {
	arr := make([]Value, len(v))
	for i, e := range v {
		arr[i] = Float(e)
	}
	return Value{Type: ParamTypeFloat, IsArray: true, Array: arr}
}

func StringArray(v []string) Value {
	arr := make([]Value, len(v))
	for i, e := range v {
		arr[i] = String(e)
	}
	return Value{Type: ParamTypeString, IsArray: true, Array: arr}
}

func DecimalArray(v []decimal.Decimal) Value {
	arr := make([]Value, len(v))
	for i, e := range v {
		arr[i] = DecimalValue(e)
	}
	return Value{Type: ParamTypeDecimal, IsArray: true, Array: arr}
}

func VarbinaryArray(v [][]byte) Value {
	arr := make([]Value, len(v))
	for i, e := range v {
		arr[i] = Varbinary(e)
	}
	return Value{Type: ParamTypeVarbinary, IsArray: true, Array: arr}
}

func TimestampArray(v []time.Time) Value {
	arr := make([]Value, len(v))
	for i, e := range v {
		arr[i] = Timestamp(e)
	}
	return Value{Type: ParamTypeTimestamp, IsArray: true, Array: arr}
}

// EncodeValue writes a single parameter value, including its leading
// type tag (and, for arrays, the ARRAY marker, component type and
// element count).
func EncodeValue(buf *Buffer, v Value) error {
	if v.IsArray {
		if err := buf.WriteInt8(int8(ParamTypeArray)); err != nil {
			return err
		}
		if err := buf.WriteInt8(int8(v.Type)); err != nil {
			return err
		}
		if err := buf.WriteInt16(int16(len(v.Array))); err != nil {
			return err
		}
		for _, e := range v.Array {
			if err := encodeScalarBody(buf, v.Type, e); err != nil {
				return err
			}
		}
		return nil
	}
	if err := buf.WriteInt8(int8(v.Type)); err != nil {
		return err
	}
	return encodeScalarBody(buf, v.Type, v)
}

func encodeScalarBody(buf *Buffer, t ParamType, v Value) error {
	switch t {
	case ParamTypeTinyInt:
		return buf.WriteInt8(v.I8)
	case ParamTypeSmallInt:
		return buf.WriteInt16(v.I16)
	case ParamTypeInteger:
		return buf.WriteInt32(v.I32)
	case ParamTypeBigInt:
		return buf.WriteInt64(v.I64)
	case ParamTypeFloat:
		return buf.WriteFloat64(v.F64)
	case ParamTypeTimestamp:
		return buf.WriteTimestamp(v.Time)
	case ParamTypeString:
		if v.Null {
			return buf.WriteNullString()
		}
		return buf.WriteString(v.Str)
	case ParamTypeVarbinary:
		if v.Null {
			return buf.WriteInt32(-1)
		}
		return buf.WriteVarbinary(v.Bin)
	case ParamTypeDecimal:
		if v.Null {
			return buf.WriteNullDecimal()
		}
		return buf.WriteDecimal(v.Dec)
	default:
		return xerrors.Newf(xerrors.ErrCodeProtocolError, "unsupported parameter type %s", t.String()).Build()
	}
}

// DecodeValue reads a single parameter value including its leading type
// tag, mirroring EncodeValue.
func DecodeValue(buf *Buffer) (Value, error) {
	tag, err := buf.ReadInt8()
	if err != nil {
		return Value{}, err
	}
	if ParamType(tag) == ParamTypeArray {
		compTag, err := buf.ReadInt8()
		if err != nil {
			return Value{}, err
		}
		count, err := buf.ReadInt16()
		if err != nil {
			return Value{}, err
		}
		comp := ParamType(compTag)
		arr := make([]Value, count)
		for i := range arr {
			elem, err := decodeScalarBody(buf, comp)
			if err != nil {
				return Value{}, err
			}
			arr[i] = elem
		}
		return Value{Type: comp, IsArray: true, Array: arr}, nil
	}
	return decodeScalarBody(buf, ParamType(tag))
}

func decodeScalarBody(buf *Buffer, t ParamType) (Value, error) {
	switch t {
	case ParamTypeTinyInt:
		v, err := buf.ReadInt8()
		return Value{Type: t, I8: v}, err
	case ParamTypeSmallInt:
		v, err := buf.ReadInt16()
		return Value{Type: t, I16: v}, err
	case ParamTypeInteger:
		v, err := buf.ReadInt32()
		return Value{Type: t, I32: v}, err
	case ParamTypeBigInt:
		v, err := buf.ReadInt64()
		return Value{Type: t, I64: v}, err
	case ParamTypeFloat:
		v, err := buf.ReadFloat64()
		return Value{Type: t, F64: v}, err
	case ParamTypeTimestamp:
		v, err := buf.ReadTimestamp()
		return Value{Type: t, Time: v}, err
	case ParamTypeString:
		s, wasNull, err := buf.ReadString()
		return Value{Type: t, Str: s, Null: wasNull}, err
	case ParamTypeVarbinary:
		b, wasNull, err := buf.ReadVarbinary()
		return Value{Type: t, Bin: b, Null: wasNull}, err
	case ParamTypeDecimal:
		d, wasNull, err := buf.ReadDecimal()
		return Value{Type: t, Dec: d, Null: wasNull}, err
	default:
		return Value{}, xerrors.Newf(xerrors.ErrCodeProtocolError, "unsupported parameter type tag %d", int8(t)).Build()
	}
}
