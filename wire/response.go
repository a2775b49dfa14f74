package wire

// RawTable is an opaque result table: raw self-describing bytes sharing
// storage with the response frame they were parsed from. Decoding the
// table's rows and columns is delegated to an external parser — out of
// scope for this library, per the purpose-and-scope boundary around the
// tabular-result container.
type RawTable []byte

// ResponseDTO is the decoded form of an invocation response payload, as
// it comes off the wire. The client package wraps this into the public
// InvocationResponse type.
type ResponseDTO struct {
	ClientData            int64
	StatusCode            int8
	StatusString          string
	AppStatusCode         int8
	AppStatusString       string
	ClusterRoundTripTime  int32
	Tables                []RawTable
}

// DecodeInvocationResponse parses an invocation response frame payload
// (the length prefix already stripped by the framer).
func DecodeInvocationResponse(payload []byte) (*ResponseDTO, error) {
	buf := NewBuffer(payload)
	if _, err := buf.ReadInt8(); err != nil { // version
		return nil, err
	}
	resp := &ResponseDTO{}
	var err error
	if resp.ClientData, err = buf.ReadInt64(); err != nil {
		return nil, err
	}
	presentFields, err := buf.ReadInt8()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode, err = buf.ReadInt8(); err != nil {
		return nil, err
	}
	if presentFields&presentStatusString != 0 {
		s, _, err := buf.ReadString()
		if err != nil {
			return nil, err
		}
		resp.StatusString = s
	}
	if resp.AppStatusCode, err = buf.ReadInt8(); err != nil {
		return nil, err
	}
	if presentFields&presentAppStatusString != 0 {
		s, _, err := buf.ReadString()
		if err != nil {
			return nil, err
		}
		resp.AppStatusString = s
	}
	if resp.ClusterRoundTripTime, err = buf.ReadInt32(); err != nil {
		return nil, err
	}
	if presentFields&presentExceptionDetail != 0 {
		length, err := buf.ReadInt32()
		if err != nil {
			return nil, err
		}
		if _, err := buf.Slice(int(length)); err != nil { // skipped, not decoded
			return nil, err
		}
	}
	resultCount, err := buf.ReadInt16()
	if err != nil {
		return nil, err
	}
	resp.Tables = make([]RawTable, resultCount)
	for i := 0; i < int(resultCount); i++ {
		tableLength, err := buf.ReadInt32()
		if err != nil {
			return nil, err
		}
		slice, err := buf.Slice(int(tableLength))
		if err != nil {
			return nil, err
		}
		resp.Tables[i] = RawTable(slice.Bytes())
	}
	return resp, nil
}

// EncodeInvocationResponse builds a framed invocation response payload;
// used by the in-process mock server.
func EncodeInvocationResponse(resp *ResponseDTO) []byte {
	var presentFields int8
	if resp.StatusString != "" {
		presentFields |= presentStatusString
	}
	if resp.AppStatusString != "" {
		presentFields |= presentAppStatusString
	}

	buf := NewWriteBuffer(64)
	buf.WriteInt8(InvocationVersion)
	buf.WriteInt64(resp.ClientData)
	buf.WriteInt8(presentFields)
	buf.WriteInt8(resp.StatusCode)
	if presentFields&presentStatusString != 0 {
		buf.WriteString(resp.StatusString)
	}
	buf.WriteInt8(resp.AppStatusCode)
	if presentFields&presentAppStatusString != 0 {
		buf.WriteString(resp.AppStatusString)
	}
	buf.WriteInt32(resp.ClusterRoundTripTime)
	buf.WriteInt16(int16(len(resp.Tables)))
	for _, t := range resp.Tables {
		buf.WriteInt32(int32(len(t)))
		buf.WriteBytesRaw(t)
	}
	return WriteFrame(buf.Bytes())
}
