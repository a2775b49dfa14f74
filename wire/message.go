package wire

import (
	"crypto/sha1"
	"encoding/binary"

	"github.com/ha1tch/procdb/internal/xerrors"
)

// FrameHeaderSize is the size of the length prefix in front of every
// message on the wire.
const FrameHeaderSize = 4

// LoginVersion is the version byte sent in a login request.
const LoginVersion int8 = 1

// ServiceDatabase and ServiceHashinator are the two service names a login
// request may request.
const (
	ServiceDatabase   = "database"
	ServiceHashinator = "hashinator"
)

// InvocationVersion is the version byte used in invocation requests and
// expected in invocation responses.
const InvocationVersion int8 = 0

// presentFields bitmask positions in an invocation response.
const (
	presentStatusString    int8 = 1 << 5
	presentExceptionDetail int8 = 1 << 6
	presentAppStatusString int8 = -128 // bit 7 set, expressed in int8's range
)

// WriteFrame prepends a 4-byte big-endian length prefix to payload.
func WriteFrame(payload []byte) []byte {
	out := make([]byte, FrameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(out[:FrameHeaderSize], uint32(len(payload)))
	copy(out[FrameHeaderSize:], payload)
	return out
}

// TryExtractFrame looks for one complete length-prefixed frame at the
// start of buf. It returns the frame's payload (sharing buf's backing
// array) and the number of bytes consumed including the length prefix;
// if buf does not yet contain a complete frame it returns a nil frame
// and consumed=0. A declared
// length exceeding maxFrameSize is a protocol error: the caller must
// close the connection.
func TryExtractFrame(buf []byte, maxFrameSize int) (frame []byte, consumed int, err error) {
	if len(buf) < FrameHeaderSize {
		return nil, 0, nil
	}
	length := int(binary.BigEndian.Uint32(buf[:FrameHeaderSize]))
	if length < 0 || length > maxFrameSize {
		return nil, 0, xerrors.Newf(xerrors.ErrCodeFrameTooLarge,
			"frame length %d exceeds maximum %d", length, maxFrameSize).Build()
	}
	total := FrameHeaderSize + length
	if len(buf) < total {
		return nil, 0, nil
	}
	return buf[FrameHeaderSize:total], total, nil
}

// HashPassword returns the 20-byte SHA-1 digest of a password, as carried
// in a login request.
func HashPassword(password string) [20]byte {
	return sha1.Sum([]byte(password))
}

// EncodeLoginRequest builds a framed login request payload.
func EncodeLoginRequest(serviceName, username, password string) []byte {
	buf := NewWriteBuffer(64 + len(username))
	buf.WriteInt8(LoginVersion)
	buf.WriteString(ServiceDatabase)
	buf.WriteString(serviceName)
	buf.WriteString(username)
	hash := HashPassword(password)
	buf.WriteBytesRaw(hash[:])
	return WriteFrame(buf.Bytes())
}

// LoginResponse is the decoded payload of a login response.
type LoginResponse struct {
	Version               int8
	AuthCode               int8
	HostID                 int32
	ConnectionID           int64
	ClusterStartTimestamp  int64
	LeaderIPv4             int32
	BuildString            string
}

// DecodeLoginResponse parses a login response frame payload (without the
// length prefix, which the caller has already stripped).
func DecodeLoginResponse(payload []byte) (*LoginResponse, error) {
	buf := NewBuffer(payload)
	resp := &LoginResponse{}
	var err error
	if resp.Version, err = buf.ReadInt8(); err != nil {
		return nil, err
	}
	if resp.AuthCode, err = buf.ReadInt8(); err != nil {
		return nil, err
	}
	if resp.HostID, err = buf.ReadInt32(); err != nil {
		return nil, err
	}
	if resp.ConnectionID, err = buf.ReadInt64(); err != nil {
		return nil, err
	}
	if resp.ClusterStartTimestamp, err = buf.ReadInt64(); err != nil {
		return nil, err
	}
	if resp.LeaderIPv4, err = buf.ReadInt32(); err != nil {
		return nil, err
	}
	buildString, _, err := buf.ReadString()
	if err != nil {
		return nil, err
	}
	resp.BuildString = buildString
	return resp, nil
}

// EncodeLoginResponse builds a framed login response payload; used by
// the in-process mock server.
func EncodeLoginResponse(resp *LoginResponse) []byte {
	buf := NewWriteBuffer(64)
	buf.WriteInt8(resp.Version)
	buf.WriteInt8(resp.AuthCode)
	buf.WriteInt32(resp.HostID)
	buf.WriteInt64(resp.ConnectionID)
	buf.WriteInt64(resp.ClusterStartTimestamp)
	buf.WriteInt32(resp.LeaderIPv4)
	buf.WriteString(resp.BuildString)
	return WriteFrame(buf.Bytes())
}

// EncodeInvocationRequest builds a framed invocation request payload for
// procName, clientData, and an already-bound parameter list.
func EncodeInvocationRequest(procName string, clientData int64, params []Value) []byte {
	buf := NewWriteBuffer(64 + len(procName) + 16*len(params))
	buf.WriteInt8(InvocationVersion)
	buf.WriteString(procName)
	buf.WriteInt64(clientData)
	buf.WriteInt16(int16(len(params)))
	for _, p := range params {
		EncodeValue(buf, p)
	}
	return WriteFrame(buf.Bytes())
}

// DecodedInvocationRequest is the parsed form of an invocation request,
// used only by the in-process mock server to play the role of a cluster
// node.
type DecodedInvocationRequest struct {
	ProcName   string
	ClientData int64
	Params     []Value
}

// DecodeInvocationRequest parses an invocation request frame payload.
func DecodeInvocationRequest(payload []byte) (*DecodedInvocationRequest, error) {
	buf := NewBuffer(payload)
	if _, err := buf.ReadInt8(); err != nil {
		return nil, err
	}
	procName, _, err := buf.ReadString()
	if err != nil {
		return nil, err
	}
	clientData, err := buf.ReadInt64()
	if err != nil {
		return nil, err
	}
	count, err := buf.ReadInt16()
	if err != nil {
		return nil, err
	}
	params := make([]Value, count)
	for i := range params {
		v, err := DecodeValue(buf)
		if err != nil {
			return nil, err
		}
		params[i] = v
	}
	return &DecodedInvocationRequest{ProcName: procName, ClientData: clientData, Params: params}, nil
}
