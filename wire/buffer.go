// Package wire implements the binary wire protocol: a big-endian byte
// buffer codec, and the login/invocation message framing built on top of
// it.
package wire

import (
	"encoding/binary"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ha1tch/procdb/internal/xerrors"
)

var twoPow128 = new(big.Int).Lsh(big.NewInt(1), 128)

// decimalScale is the implied scale for the wire DECIMAL encoding: a
// 16-byte two's-complement big-endian integer representing the value
// scaled by 10^12.
const decimalScale = 12

var decimalScaleFactor = mustPow10(decimalScale)

func mustPow10(n int) decimal.Decimal {
	ten := decimal.NewFromInt(10)
	out := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		out = out.Mul(ten)
	}
	return out
}

// decimalNullSentinel is the all-bits-0x80-followed-by-zeros null marker.
var decimalNullSentinel = func() [16]byte {
	var b [16]byte
	b[0] = 0x80
	return b
}()

// Overrun reports that a read or write would cross the buffer's limit.
func overrun(op string, need, have int) error {
	return xerrors.Newf(xerrors.ErrCodeOverrun, "%s: need %d bytes, have %d", op, need, have).Build()
}

// Buffer is a big-endian byte buffer with a positional cursor and a limit.
// Reads and writes advance position; Slice yields a view sharing the
// underlying storage. A Buffer constructed over a received network frame
// is fixed-size and enforces Overrun strictly; a Buffer constructed with
// NewWriteBuffer grows automatically as an outbound invocation is built.
type Buffer struct {
	data     []byte
	position int
	limit    int
	growable bool
}

// NewBuffer wraps an existing byte slice for reading. The buffer shares
// the given slice's backing array; callers must not mutate data after
// wrapping it for as long as the Buffer (or any Slice of it) is in use.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data, position: 0, limit: len(data)}
}

// NewWriteBuffer creates an empty, growable buffer for building an
// outbound message. initialCap is a hint, not a hard limit.
func NewWriteBuffer(initialCap int) *Buffer {
	if initialCap < 16 {
		initialCap = 16
	}
	return &Buffer{data: make([]byte, 0, initialCap), position: 0, limit: 0, growable: true}
}

// Position returns the current cursor position.
func (b *Buffer) Position() int { return b.position }

// SetPosition moves the cursor to an absolute position within [0, limit].
func (b *Buffer) SetPosition(pos int) { b.position = pos }

// Limit returns the current limit.
func (b *Buffer) Limit() int { return b.limit }

// SetLimit sets the limit.
func (b *Buffer) SetLimit(limit int) { b.limit = limit }

// Remaining returns the number of bytes between position and limit.
func (b *Buffer) Remaining() int { return b.limit - b.position }

// Bytes returns the full backing slice (for framing the length prefix).
func (b *Buffer) Bytes() []byte { return b.data[:b.limit] }

func (b *Buffer) ensure(n int) error {
	if b.growable {
		need := b.position + n
		if need > len(b.data) {
			grown := make([]byte, need)
			copy(grown, b.data)
			b.data = grown
		}
		if need > b.limit {
			b.limit = need
		}
		return nil
	}
	if b.position+n > b.limit {
		return overrun("write", n, b.limit-b.position)
	}
	return nil
}

func (b *Buffer) checkRead(n int) error {
	if b.position+n > b.limit {
		return overrun("read", n, b.limit-b.position)
	}
	return nil
}

// Slice carves out the next length bytes as a new Buffer sharing the same
// backing array, and advances this buffer's position past them.
func (b *Buffer) Slice(length int) (*Buffer, error) {
	if err := b.checkRead(length); err != nil {
		return nil, err
	}
	start := b.position
	b.position += length
	return &Buffer{data: b.data[start : start+length], position: 0, limit: length}, nil
}

// WriteInt8 writes a signed 8-bit integer.
func (b *Buffer) WriteInt8(v int8) error {
	if err := b.ensure(1); err != nil {
		return err
	}
	b.data[b.position] = byte(v)
	b.position++
	return nil
}

// ReadInt8 reads a signed 8-bit integer.
func (b *Buffer) ReadInt8() (int8, error) {
	if err := b.checkRead(1); err != nil {
		return 0, err
	}
	v := int8(b.data[b.position])
	b.position++
	return v, nil
}

// WriteInt16 writes a big-endian signed 16-bit integer.
func (b *Buffer) WriteInt16(v int16) error {
	if err := b.ensure(2); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b.data[b.position:], uint16(v))
	b.position += 2
	return nil
}

// ReadInt16 reads a big-endian signed 16-bit integer.
func (b *Buffer) ReadInt16() (int16, error) {
	if err := b.checkRead(2); err != nil {
		return 0, err
	}
	v := int16(binary.BigEndian.Uint16(b.data[b.position:]))
	b.position += 2
	return v, nil
}

// WriteInt32 writes a big-endian signed 32-bit integer.
func (b *Buffer) WriteInt32(v int32) error {
	if err := b.ensure(4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b.data[b.position:], uint32(v))
	b.position += 4
	return nil
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func (b *Buffer) ReadInt32() (int32, error) {
	if err := b.checkRead(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(b.data[b.position:]))
	b.position += 4
	return v, nil
}

// WriteInt64 writes a big-endian signed 64-bit integer.
func (b *Buffer) WriteInt64(v int64) error {
	if err := b.ensure(8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(b.data[b.position:], uint64(v))
	b.position += 8
	return nil
}

// ReadInt64 reads a big-endian signed 64-bit integer.
func (b *Buffer) ReadInt64() (int64, error) {
	if err := b.checkRead(8); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(b.data[b.position:]))
	b.position += 8
	return v, nil
}

// WriteFloat64 writes a big-endian IEEE-754 double.
func (b *Buffer) WriteFloat64(v float64) error {
	return b.WriteInt64(int64(math.Float64bits(v)))
}

// ReadFloat64 reads a big-endian IEEE-754 double.
func (b *Buffer) ReadFloat64() (float64, error) {
	bits, err := b.ReadInt64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(bits)), nil
}

// WriteBytesRaw writes raw bytes with no length prefix.
func (b *Buffer) WriteBytesRaw(p []byte) error {
	if err := b.ensure(len(p)); err != nil {
		return err
	}
	copy(b.data[b.position:], p)
	b.position += len(p)
	return nil
}

// ReadBytesRaw reads n raw bytes with no length prefix. The returned slice
// shares the buffer's backing array.
func (b *Buffer) ReadBytesRaw(n int) ([]byte, error) {
	if err := b.checkRead(n); err != nil {
		return nil, err
	}
	p := b.data[b.position : b.position+n]
	b.position += n
	return p, nil
}

// WriteString writes a 4-byte signed length prefix followed by UTF-8
// bytes. A nil-marker (-1 length) is never produced by this method; use
// WriteNullString for that.
func (b *Buffer) WriteString(s string) error {
	if err := b.WriteInt32(int32(len(s))); err != nil {
		return err
	}
	return b.WriteBytesRaw([]byte(s))
}

// WriteNullString writes the null-string sentinel: a 4-byte length of -1
// and no payload.
func (b *Buffer) WriteNullString() error {
	return b.WriteInt32(-1)
}

// ReadString reads a length-prefixed UTF-8 string. wasNull reports
// whether the -1 null sentinel was read, in which case the returned
// string is empty.
func (b *Buffer) ReadString() (s string, wasNull bool, err error) {
	length, err := b.ReadInt32()
	if err != nil {
		return "", false, err
	}
	if length == -1 {
		return "", true, nil
	}
	if length < 0 {
		return "", false, overrun("read string", int(length), 0)
	}
	raw, err := b.ReadBytesRaw(int(length))
	if err != nil {
		return "", false, err
	}
	return string(raw), false, nil
}

// WriteVarbinary writes a 4-byte length followed by raw bytes.
func (b *Buffer) WriteVarbinary(p []byte) error {
	if err := b.WriteInt32(int32(len(p))); err != nil {
		return err
	}
	return b.WriteBytesRaw(p)
}

// ReadVarbinary reads a 4-byte length followed by raw bytes. The returned
// slice shares the buffer's backing array. wasNull mirrors ReadString.
func (b *Buffer) ReadVarbinary() (p []byte, wasNull bool, err error) {
	length, err := b.ReadInt32()
	if err != nil {
		return nil, false, err
	}
	if length == -1 {
		return nil, true, nil
	}
	if length < 0 {
		return nil, false, overrun("read varbinary", int(length), 0)
	}
	raw, err := b.ReadBytesRaw(int(length))
	if err != nil {
		return nil, false, err
	}
	return raw, false, nil
}

// WriteDecimal writes a decimal.Decimal as a 16-byte two's-complement
// big-endian integer with implied scale 12.
func (b *Buffer) WriteDecimal(d decimal.Decimal) error {
	if err := b.ensure(16); err != nil {
		return err
	}
	scaled := d.Mul(decimalScaleFactor).Round(0).BigInt()
	var out [16]byte
	if scaled.Sign() < 0 {
		wrapped := new(big.Int).Add(twoPow128, scaled)
		raw := wrapped.Bytes()
		copy(out[16-len(raw):], raw)
	} else {
		raw := scaled.Bytes()
		copy(out[16-len(raw):], raw)
	}
	copy(b.data[b.position:], out[:])
	b.position += 16
	return nil
}

// WriteNullDecimal writes the decimal null sentinel (0x80 followed by
// fifteen zero bytes).
func (b *Buffer) WriteNullDecimal() error {
	if err := b.ensure(16); err != nil {
		return err
	}
	copy(b.data[b.position:], decimalNullSentinel[:])
	b.position += 16
	return nil
}

// ReadDecimal reads a 16-byte two's-complement big-endian decimal with
// implied scale 12. wasNull reports the null sentinel.
func (b *Buffer) ReadDecimal() (d decimal.Decimal, wasNull bool, err error) {
	raw, err := b.ReadBytesRaw(16)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	if raw[0] == 0x80 {
		allZeroTail := true
		for _, c := range raw[1:] {
			if c != 0 {
				allZeroTail = false
				break
			}
		}
		if allZeroTail {
			return decimal.Decimal{}, true, nil
		}
	}
	unsigned := new(big.Int).SetBytes(raw)
	if raw[0]&0x80 != 0 {
		unsigned.Sub(unsigned, twoPow128)
	}
	val := decimal.NewFromBigInt(unsigned, 0)
	return val.Div(decimalScaleFactor), false, nil
}

// WriteTimestamp writes a time.Time as 64-bit microseconds since the Unix
// epoch.
func (b *Buffer) WriteTimestamp(t time.Time) error {
	micros := t.UnixMicro()
	return b.WriteInt64(micros)
}

// ReadTimestamp reads 64-bit microseconds since the Unix epoch.
func (b *Buffer) ReadTimestamp() (time.Time, error) {
	micros, err := b.ReadInt64()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(micros).UTC(), nil
}
