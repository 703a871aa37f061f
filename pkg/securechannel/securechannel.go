// Package securechannel establishes an authenticated, confidential, ordered
// channel between two node addresses: an X25519 ephemeral key exchange
// binds a session key, Ed25519 identity proofs over the exchange's channel
// binding authenticate both ends, and a ChaCha20-Poly1305 data plane with a
// strictly monotonic nonce counter carries application traffic afterward,
// stamping every decrypted message with the verified sender's identity.
//
// Grounded on the node runtime's worker-pair idiom (pkg/transport/tcp): a
// channel endpoint is a pair of RawWorkers, one for encryption and one for
// decryption, each registered under a public and an internal address, so a
// single mailbox can field both handshake and data-plane traffic without a
// second worker type. The handshake itself runs as a synchronous
// pkg/fsm.StateMachine driven from the encryption worker's own relay
// goroutine.
package securechannel

import (
	"time"

	"github.com/ockamio/ockam/pkg/fsm"
)

// Error is this package's error type, carrying a stable code alongside a
// human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

const (
	CodeHandshakeTimeout = "HANDSHAKE_TIMEOUT"
	CodeHandshakeFailed  = "HANDSHAKE_FAILED"
	CodeNotReady         = "NOT_READY"
	CodeClosed           = "CLOSED"
)

// State names one point in the handshake/data-plane lifecycle. An alias
// for fsm.State, not a distinct type, so these constants can be passed
// directly to the StateMachine they configure.
type State = fsm.State

const (
	StateIdle               State = "Idle"
	StateAwaitKeyExchange1  State = "AwaitKeyExchange1"
	StateAwaitKeyExchange2  State = "AwaitKeyExchange2"
	StateAwaitIdentityProof State = "AwaitIdentityProof"
	StateReady              State = "Ready"
	StateClosed             State = "Closed"
)

// Event names one trigger fed into the handshake state machine. An alias
// for fsm.Event, for the same reason State aliases fsm.State.
type Event = fsm.Event

const (
	eventStart             Event = "Start"
	eventRecvExchange1     Event = "RecvExchange1"
	eventRecvExchange2     Event = "RecvExchange2"
	eventRecvIdentityProof Event = "RecvIdentityProof"
	eventRecvConfirm       Event = "RecvConfirm"
	eventClose             Event = "Close"
)

// Role distinguishes which side of the (otherwise symmetric) handshake an
// endpoint plays.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

// Config tunes one secure channel endpoint or listener.
type Config struct {
	// Cluster groups the endpoint's workers for node shutdown ordering.
	Cluster string
	// HandshakeTimeout bounds how long an endpoint waits to reach Ready
	// before closing itself with CodeHandshakeTimeout.
	HandshakeTimeout time.Duration
	// OnChannel, if set, is called by a Listener every time it finishes
	// spawning a responder endpoint for an inbound handshake initiation.
	OnChannel func(*SecureChannel)
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Cluster:          "_internals.securechannel",
		HandshakeTimeout: 30 * time.Second,
	}
}

var handshakeKeyInfo = []byte("ockam secure channel handshake confirm")
var dataPlaneKeyInfo = []byte("ockam secure channel data plane")
