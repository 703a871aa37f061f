package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Canonical encoding keeps map key order stable across the wire, and
	// tag-based field numbers (set via struct `cbor:"N,keyasint"` tags)
	// give forward compatibility: an older decoder skips tags it does not
	// recognize instead of failing.
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: building cbor encode mode: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: building cbor decode mode: %v", err))
	}
}

// EncodeTransportMessage serializes a transport message for framing onto a
// transport connection.
func EncodeTransportMessage(m TransportMessage) ([]byte, error) {
	b, err := encMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("wire: encode transport message: %w", err)
	}
	return b, nil
}

// DecodeTransportMessage is the inverse of EncodeTransportMessage.
func DecodeTransportMessage(data []byte) (TransportMessage, error) {
	var m TransportMessage
	if err := decMode.Unmarshal(data, &m); err != nil {
		return TransportMessage{}, fmt.Errorf("wire: decode transport message: %w", err)
	}
	return m, nil
}

// EncodeLocalMessage serializes a local message, including its LocalInfo.
// Used only for in-process boundary crossings (e.g. tests), never framed
// directly onto a transport connection.
func EncodeLocalMessage(m LocalMessage) ([]byte, error) {
	b, err := encMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("wire: encode local message: %w", err)
	}
	return b, nil
}

// DecodeLocalMessage is the inverse of EncodeLocalMessage.
func DecodeLocalMessage(data []byte) (LocalMessage, error) {
	var m LocalMessage
	if err := decMode.Unmarshal(data, &m); err != nil {
		return LocalMessage{}, fmt.Errorf("wire: decode local message: %w", err)
	}
	return m, nil
}

// EncodePayload serializes an arbitrary message body for use as a
// TransportMessage.Payload. Workers never call EncodeTransportMessage
// directly for their own message type — they encode just the payload and
// let Context build the envelope around it.
func EncodePayload(v interface{}) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: encode payload: %w", err)
	}
	return b, nil
}

// DecodePayload is the inverse of EncodePayload. v must be a pointer.
func DecodePayload(data []byte, v interface{}) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("wire: decode payload: %w", err)
	}
	return nil
}

// maxFrameLength bounds a single frame. The length prefix written by
// WriteFrame is a uint16, so this must never exceed math.MaxUint16 — a
// larger payload would silently truncate its own length header instead of
// being rejected.
const maxFrameLength = math.MaxUint16

// WriteFrame writes a length-prefixed frame: a big-endian uint16 byte count
// followed by exactly that many bytes. A zero-length payload is a valid
// frame used as a transport heartbeat/keepalive.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxFrameLength {
		return fmt.Errorf("wire: frame of %d bytes exceeds maximum %d", len(payload), maxFrameLength)
	}
	var header [2]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write frame header: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame. A zero-length frame is
// returned as a non-nil, empty slice so callers can distinguish a
// heartbeat frame from an error.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(header[:])
	if n == 0 {
		return []byte{}, nil
	}
	if n > maxFrameLength {
		return nil, fmt.Errorf("wire: frame of %d bytes exceeds maximum %d", n, maxFrameLength)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("wire: read frame payload: %w", err)
	}
	return buf, nil
}
