// Package ws is a WebSocket transport: every peer gets one WebSocket
// connection and a sender/receiver worker pair, grounded on the teacher's
// WebSocketEventBusBridge for the upgrade/accept side, restructured around
// node messages instead of the teacher's JSON RPC-style wsMessage envelope.
package ws

import "time"

// TransportType is the address transport type this package's Router
// resolves: non-local addresses with this transport type name a peer by
// the dial URL ("ws://host:port/path") in their Value.
const TransportType uint8 = 2

// Config controls connection behavior. A zero Config is not valid — use
// DefaultConfig.
type Config struct {
	// HandshakeTimeout bounds the WebSocket upgrade handshake, both for
	// dialing out and for accepting an inbound upgrade.
	HandshakeTimeout time.Duration
	// WriteTimeout bounds a single message write.
	WriteTimeout time.Duration
	// HeartbeatInterval is how often an idle sender writes a zero-length
	// keepalive message. 0 disables heartbeats.
	HeartbeatInterval time.Duration
}

// DefaultConfig mirrors pkg/transport/tcp's defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 5 * time.Minute,
	}
}
