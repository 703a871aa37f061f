package wire

import (
	"bytes"
	"testing"

	"github.com/ockamio/ockam/pkg/addr"
)

func TestTransportMessageRoundTrip(t *testing.T) {
	onward := addr.NewRoute(addr.NewLocal("next"), addr.New(1, "127.0.0.1:4000"))
	ret := addr.NewRoute(addr.NewLocal("origin"))
	orig := NewTransportMessage(onward, ret, []byte("hello"))

	encoded, err := EncodeTransportMessage(orig)
	if err != nil {
		t.Fatalf("EncodeTransportMessage: %v", err)
	}
	decoded, err := DecodeTransportMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeTransportMessage: %v", err)
	}

	if decoded.Version != orig.Version {
		t.Fatalf("Version = %d, want %d", decoded.Version, orig.Version)
	}
	if !bytes.Equal(decoded.Payload, orig.Payload) {
		t.Fatalf("Payload = %q, want %q", decoded.Payload, orig.Payload)
	}
	if decoded.OnwardRoute.String() != orig.OnwardRoute.String() {
		t.Fatalf("OnwardRoute = %v, want %v", decoded.OnwardRoute, orig.OnwardRoute)
	}
	if decoded.ReturnRoute.String() != orig.ReturnRoute.String() {
		t.Fatalf("ReturnRoute = %v, want %v", decoded.ReturnRoute, orig.ReturnRoute)
	}
}

func TestTransportMessageStep(t *testing.T) {
	onward := addr.NewRoute(addr.NewLocal("hop1"), addr.NewLocal("hop2"))
	tm := NewTransportMessage(onward, addr.NewRoute(), nil)

	stepped := tm.Step()

	if got, want := stepped.OnwardRoute.String(), "hop2"; got != want {
		t.Fatalf("OnwardRoute after Step = %q, want %q", got, want)
	}
}

func TestTransportMessageStampReturn(t *testing.T) {
	tm := NewTransportMessage(addr.NewRoute(), addr.NewRoute(addr.NewLocal("origin")), nil)
	stamped := tm.StampReturn(addr.NewLocal("hop"))
	if got, want := stamped.ReturnRoute.String(), "origin => hop"; got != want {
		t.Fatalf("ReturnRoute after StampReturn = %q, want %q", got, want)
	}
}

func TestLocalMessageFind(t *testing.T) {
	tm := NewTransportMessage(addr.NewRoute(), addr.NewRoute(), []byte("x"))
	lm := NewLocalMessage(tm)
	lm = lm.WithLocalInfo(LocalInfo{TypeIdentifier: IdentitySecureChannelIdentifier, Data: []byte("id-1")})

	info, ok := lm.Find(IdentitySecureChannelIdentifier)
	if !ok {
		t.Fatalf("expected to find %s", IdentitySecureChannelIdentifier)
	}
	if string(info.Data) != "id-1" {
		t.Fatalf("Data = %q, want %q", info.Data, "id-1")
	}
	if _, ok := lm.Find("missing"); ok {
		t.Fatalf("did not expect to find unrelated type identifier")
	}
}

func TestLocalMessageRoundTrip(t *testing.T) {
	tm := NewTransportMessage(addr.NewRoute(addr.NewLocal("a")), addr.NewRoute(), []byte("payload"))
	lm := NewLocalMessage(tm).WithLocalInfo(LocalInfo{TypeIdentifier: "TEST", Data: []byte{1, 2, 3}})

	encoded, err := EncodeLocalMessage(lm)
	if err != nil {
		t.Fatalf("EncodeLocalMessage: %v", err)
	}
	decoded, err := DecodeLocalMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeLocalMessage: %v", err)
	}
	if len(decoded.LocalInfo) != 1 || decoded.LocalInfo[0].TypeIdentifier != "TEST" {
		t.Fatalf("LocalInfo = %+v, want one TEST entry", decoded.LocalInfo)
	}
	if !bytes.Equal(decoded.TransportMessage.Payload, []byte("payload")) {
		t.Fatalf("Payload = %q, want %q", decoded.TransportMessage.Payload, "payload")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("hello world")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("ReadFrame = %q, want %q", got, "hello world")
	}
}

func TestFrameHeartbeatIsZeroLength(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, nil); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("ReadFrame heartbeat = %v, want non-nil empty slice", got)
	}
}

func TestFrameMultipleInStream(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("one")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := WriteFrame(&buf, []byte("two")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	first, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame first: %v", err)
	}
	second, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame second: %v", err)
	}
	if string(first) != "one" || string(second) != "two" {
		t.Fatalf("got frames %q, %q, want \"one\", \"two\"", first, second)
	}
}

func TestWriteFrameRejectsPayloadTooLargeForU16Header(t *testing.T) {
	var buf bytes.Buffer
	oversized := make([]byte, maxFrameLength+1)
	if err := WriteFrame(&buf, oversized); err == nil {
		t.Fatal("expected WriteFrame to reject a payload too large for a uint16 length prefix")
	}
	if buf.Len() != 0 {
		t.Fatalf("WriteFrame wrote %d bytes on rejection, want none", buf.Len())
	}
}
