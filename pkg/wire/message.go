// Package wire defines the on-the-wire message types carried between nodes
// and the transports that move them, along with their CBOR encoding.
package wire

import "github.com/ockamio/ockam/pkg/addr"

// ProtocolVersion is the only transport message version this implementation
// emits or accepts.
const ProtocolVersion uint8 = 1

// TransportMessage is what actually crosses a transport connection: a
// versioned envelope carrying the remaining onward route, the return route
// accumulated so far, and an opaque payload. Field numbers below are fixed
// and must never be reassigned — they are part of the wire contract.
type TransportMessage struct {
	Version     uint8      `cbor:"0,keyasint"`
	OnwardRoute addr.Route `cbor:"1,keyasint"`
	ReturnRoute addr.Route `cbor:"2,keyasint"`
	Payload     []byte     `cbor:"3,keyasint"`
}

// NewTransportMessage builds a version-1 transport message.
func NewTransportMessage(onward, ret addr.Route, payload []byte) TransportMessage {
	return TransportMessage{
		Version:     ProtocolVersion,
		OnwardRoute: onward.Clone(),
		ReturnRoute: ret.Clone(),
		Payload:     payload,
	}
}

// Step consumes the next hop of the onward route, the transformation a
// transport sender applies before framing a message for the wire: its own
// address resolved that hop, so it drops it and forwards the rest.
func (m TransportMessage) Step() TransportMessage {
	m.OnwardRoute = m.OnwardRoute.Step()
	return m
}

// StampReturn appends selfAddr to the return route. Used by routing
// middleware workers that want a reply to retrace their hop; ordinary
// transport senders do not call this.
func (m TransportMessage) StampReturn(selfAddr addr.Address) TransportMessage {
	m.ReturnRoute = m.ReturnRoute.Append(selfAddr)
	return m
}

// LocalInfo attaches node-local metadata to a message as it travels between
// workers on the same node. It never crosses a transport boundary — the
// sending end of any transport worker pair frames only the
// TransportMessage, the receiving end wraps what arrives in a LocalMessage
// with no LocalInfo, and a worker on that node attaches whatever is
// appropriate locally (e.g. the secure channel decryptor's identifier).
type LocalInfo struct {
	TypeIdentifier string `cbor:"0,keyasint"`
	Data           []byte `cbor:"1,keyasint"`
}

// IdentitySecureChannelIdentifier is the LocalInfo type identifier stamped
// exactly once, by the decrypting worker, on every message that traveled
// through a ready secure channel.
const IdentitySecureChannelIdentifier = "IDENTITY_SECURE_CHANNEL_IDENTIFIER"

// LocalMessage is the in-memory representation passed through mailboxes: a
// transport message plus whatever local metadata has accumulated on this
// node. Only LocalMessage.TransportMessage is ever serialized across a
// transport connection.
type LocalMessage struct {
	TransportMessage TransportMessage `cbor:"0,keyasint"`
	LocalInfo        []LocalInfo      `cbor:"1,keyasint"`
}

// NewLocalMessage wraps a transport message with no local metadata.
func NewLocalMessage(tm TransportMessage) LocalMessage {
	return LocalMessage{TransportMessage: tm}
}

// WithLocalInfo returns a copy with the given LocalInfo entry appended.
func (m LocalMessage) WithLocalInfo(info LocalInfo) LocalMessage {
	out := m
	out.LocalInfo = append(append([]LocalInfo{}, m.LocalInfo...), info)
	return out
}

// Find returns the first LocalInfo entry with the given type identifier.
func (m LocalMessage) Find(typeIdentifier string) (LocalInfo, bool) {
	for _, info := range m.LocalInfo {
		if info.TypeIdentifier == typeIdentifier {
			return info, true
		}
	}
	return LocalInfo{}, false
}
