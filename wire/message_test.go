package wire

import (
	"bytes"
	"testing"
)

func TestTryExtractFrame_Incomplete(t *testing.T) {
	full := WriteFrame([]byte("hello"))

	// Partial header: not enough to know the length.
	if frame, consumed, err := TryExtractFrame(full[:2], 1024); err != nil || consumed != 0 || frame != nil {
		t.Fatalf("partial header: got (%v, %d, %v), want (nil, 0, nil)", frame, consumed, err)
	}
	// Full header, partial payload.
	if frame, consumed, err := TryExtractFrame(full[:FrameHeaderSize+2], 1024); err != nil || consumed != 0 || frame != nil {
		t.Fatalf("partial payload: got (%v, %d, %v), want (nil, 0, nil)", frame, consumed, err)
	}
}

func TestTryExtractFrame_SplitAcrossReads(t *testing.T) {
	frame1 := WriteFrame([]byte("first"))
	frame2 := WriteFrame([]byte("second message"))
	stream := append(append([]byte{}, frame1...), frame2...)

	// Simulate a read that lands inside frame1's length prefix.
	splitPoint := 3
	first, consumed, err := TryExtractFrame(stream[:splitPoint], 1024)
	if err != nil || consumed != 0 || first != nil {
		t.Fatalf("first partial read: got (%v, %d, %v), want (nil, 0, nil)", first, consumed, err)
	}

	// Now the rest of the stream arrives.
	payload1, consumed1, err := TryExtractFrame(stream, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload1) != "first" {
		t.Fatalf("first frame payload = %q, want %q", payload1, "first")
	}
	remaining := stream[consumed1:]
	payload2, consumed2, err := TryExtractFrame(remaining, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload2) != "second message" {
		t.Fatalf("second frame payload = %q, want %q", payload2, "second message")
	}
	if consumed2 != len(remaining) {
		t.Fatalf("consumed2 = %d, want %d (whole remaining buffer)", consumed2, len(remaining))
	}
}

func TestTryExtractFrame_TooLarge(t *testing.T) {
	frame := WriteFrame(make([]byte, 100))
	if _, _, err := TryExtractFrame(frame, 10); err == nil {
		t.Fatal("expected an error for a frame exceeding maxFrameSize")
	}
}

func TestLoginRequestResponseRoundTrip(t *testing.T) {
	req := EncodeLoginRequest(ServiceDatabase, "alice", "s3cret")
	payload, consumed, err := TryExtractFrame(req, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(req) {
		t.Fatalf("consumed = %d, want %d", consumed, len(req))
	}
	if payload[0] != byte(LoginVersion) {
		t.Fatalf("version byte = %d, want %d", payload[0], LoginVersion)
	}

	resp := &LoginResponse{Version: 1, AuthCode: 0, HostID: 3, ConnectionID: 99, ClusterStartTimestamp: 12345, LeaderIPv4: 0x7f000001, BuildString: "v1.0"}
	encoded := EncodeLoginResponse(resp)
	respPayload, _, err := TryExtractFrame(encoded, 1024)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeLoginResponse(respPayload)
	if err != nil {
		t.Fatal(err)
	}
	if *decoded != *resp {
		t.Errorf("DecodeLoginResponse() = %+v, want %+v", decoded, resp)
	}
}

func TestInvocationRequestRoundTrip(t *testing.T) {
	params := []Value{Integer(42), String("hi"), NullString()}
	frame := EncodeInvocationRequest("MyProc", 7, params)
	payload, _, err := TryExtractFrame(frame, 1024)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeInvocationRequest(payload)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.ProcName != "MyProc" || decoded.ClientData != 7 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if len(decoded.Params) != 3 || decoded.Params[0].I32 != 42 || decoded.Params[1].Str != "hi" || !decoded.Params[2].Null {
		t.Fatalf("decoded params = %+v", decoded.Params)
	}
}

func TestInvocationResponseRoundTrip(t *testing.T) {
	resp := &ResponseDTO{
		ClientData:           55,
		StatusCode:           1,
		StatusString:         "ok",
		AppStatusCode:        0,
		ClusterRoundTripTime: 12,
		Tables:               []RawTable{RawTable("table-bytes-1"), RawTable("table-bytes-2")},
	}
	encoded := EncodeInvocationResponse(resp)
	payload, _, err := TryExtractFrame(encoded, 1024)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeInvocationResponse(payload)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.ClientData != 55 || decoded.StatusCode != 1 || decoded.StatusString != "ok" {
		t.Fatalf("decoded = %+v", decoded)
	}
	if len(decoded.Tables) != 2 || !bytes.Equal(decoded.Tables[0], []byte("table-bytes-1")) {
		t.Fatalf("decoded tables = %v", decoded.Tables)
	}
}
