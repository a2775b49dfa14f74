package wire

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBuffer_IntRoundTrip(t *testing.T) {
	buf := NewWriteBuffer(64)
	if err := buf.WriteInt8(-7); err != nil {
		t.Fatal(err)
	}
	if err := buf.WriteInt16(-1234); err != nil {
		t.Fatal(err)
	}
	if err := buf.WriteInt32(123456789); err != nil {
		t.Fatal(err)
	}
	if err := buf.WriteInt64(-9223372036854775800); err != nil {
		t.Fatal(err)
	}

	read := NewBuffer(buf.Bytes())
	i8, err := read.ReadInt8()
	if err != nil || i8 != -7 {
		t.Fatalf("ReadInt8() = %d, %v, want -7, nil", i8, err)
	}
	i16, err := read.ReadInt16()
	if err != nil || i16 != -1234 {
		t.Fatalf("ReadInt16() = %d, %v, want -1234, nil", i16, err)
	}
	i32, err := read.ReadInt32()
	if err != nil || i32 != 123456789 {
		t.Fatalf("ReadInt32() = %d, %v, want 123456789, nil", i32, err)
	}
	i64, err := read.ReadInt64()
	if err != nil || i64 != -9223372036854775800 {
		t.Fatalf("ReadInt64() = %d, %v, want -9223372036854775800, nil", i64, err)
	}
}

func TestBuffer_StringRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"ascii", "hello world"},
		{"utf8", "héllo wörld 日本語"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewWriteBuffer(32)
			if err := buf.WriteString(tt.in); err != nil {
				t.Fatal(err)
			}
			read := NewBuffer(buf.Bytes())
			got, wasNull, err := read.ReadString()
			if err != nil {
				t.Fatal(err)
			}
			if wasNull {
				t.Fatal("wasNull = true, want false")
			}
			if got != tt.in {
				t.Errorf("ReadString() = %q, want %q", got, tt.in)
			}
		})
	}
}

func TestBuffer_NullString(t *testing.T) {
	buf := NewWriteBuffer(8)
	if err := buf.WriteNullString(); err != nil {
		t.Fatal(err)
	}
	read := NewBuffer(buf.Bytes())
	s, wasNull, err := read.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	if !wasNull || s != "" {
		t.Errorf("ReadString() = %q, %v, want \"\", true", s, wasNull)
	}
}

func TestBuffer_VarbinaryRoundTrip(t *testing.T) {
	buf := NewWriteBuffer(16)
	payload := []byte{0x01, 0x02, 0xff, 0x00, 0x7f}
	if err := buf.WriteVarbinary(payload); err != nil {
		t.Fatal(err)
	}
	read := NewBuffer(buf.Bytes())
	got, wasNull, err := read.ReadVarbinary()
	if err != nil {
		t.Fatal(err)
	}
	if wasNull {
		t.Fatal("wasNull = true, want false")
	}
	if string(got) != string(payload) {
		t.Errorf("ReadVarbinary() = %x, want %x", got, payload)
	}
}

func TestBuffer_DecimalRoundTrip(t *testing.T) {
	tests := []string{
		"0",
		"1",
		"-1",
		"123.456789012345",
		"-123.456789012345",
		"99999999999999999999999999.999999999999",
		"-99999999999999999999999999.999999999999",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			d, err := decimal.NewFromString(s)
			if err != nil {
				t.Fatal(err)
			}
			buf := NewWriteBuffer(16)
			if err := buf.WriteDecimal(d); err != nil {
				t.Fatal(err)
			}
			read := NewBuffer(buf.Bytes())
			got, wasNull, err := read.ReadDecimal()
			if err != nil {
				t.Fatal(err)
			}
			if wasNull {
				t.Fatal("wasNull = true, want false")
			}
			if !got.Round(12).Equal(d.Round(12)) {
				t.Errorf("ReadDecimal() = %s, want %s", got, d)
			}
		})
	}
}

func TestBuffer_NullDecimal(t *testing.T) {
	buf := NewWriteBuffer(16)
	if err := buf.WriteNullDecimal(); err != nil {
		t.Fatal(err)
	}
	read := NewBuffer(buf.Bytes())
	_, wasNull, err := read.ReadDecimal()
	if err != nil {
		t.Fatal(err)
	}
	if !wasNull {
		t.Error("wasNull = false, want true")
	}
}

func TestBuffer_TimestampRoundTrip(t *testing.T) {
	in := time.Date(2026, 8, 2, 12, 30, 45, 123000, time.UTC)
	buf := NewWriteBuffer(8)
	if err := buf.WriteTimestamp(in); err != nil {
		t.Fatal(err)
	}
	read := NewBuffer(buf.Bytes())
	got, err := read.ReadTimestamp()
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(in) {
		t.Errorf("ReadTimestamp() = %v, want %v", got, in)
	}
}

func TestBuffer_ReadOverrun(t *testing.T) {
	buf := NewBuffer([]byte{0x01, 0x02})
	if _, err := buf.ReadInt32(); err == nil {
		t.Fatal("ReadInt32() on 2-byte buffer: got nil error, want overrun")
	}
}

func TestBuffer_SliceSharesBackingArray(t *testing.T) {
	data := []byte{0xAA, 0x01, 0x02, 0x03, 0xBB}
	buf := NewBuffer(data)
	if _, err := buf.ReadInt8(); err != nil {
		t.Fatal(err)
	}
	slice, err := buf.Slice(3)
	if err != nil {
		t.Fatal(err)
	}
	if slice.Bytes()[0] != 0x01 || slice.Bytes()[2] != 0x03 {
		t.Fatalf("Slice().Bytes() = %x, want [01 02 03]", slice.Bytes())
	}
	data[2] = 0xCC
	if slice.Bytes()[1] != 0xCC {
		t.Fatalf("Slice().Bytes()[1] = %x after writing the backing array, want cc", slice.Bytes()[1])
	}
	last, err := buf.ReadInt8()
	if err != nil || last != -0x45 {
		t.Fatalf("trailing byte after slice = %d, %v", last, err)
	}
}
