// Package tcp is a stream-oriented transport: every peer gets one
// TCP connection and a sender/receiver worker pair that frames
// node messages onto it, grounded on the original implementation's
// ockam_transport_tcp worker pair and on the teacher's TCPServer accept
// loop for the listening side.
package tcp

import "time"

// TransportType is the address transport type this package's Router
// resolves: non-local addresses with this transport type name a peer by
// "host:port" in their Value.
const TransportType uint8 = 1

// Config controls connection behavior. A zero Config is not valid — use
// DefaultConfig.
type Config struct {
	// DialTimeout bounds an outbound connection attempt.
	DialTimeout time.Duration
	// ReadTimeout, if nonzero, is set as the per-read deadline on the
	// underlying connection; 0 disables read deadlines (relying on
	// heartbeats to detect a dead peer instead).
	ReadTimeout time.Duration
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// HeartbeatInterval is how often an idle sender writes a zero-length
	// keepalive frame. 0 disables heartbeats.
	HeartbeatInterval time.Duration
}

// DefaultConfig matches the original implementation's defaults: a 5 minute
// heartbeat, generous dial/write timeouts, no read deadline (heartbeats
// carry that responsibility instead).
func DefaultConfig() Config {
	return Config{
		DialTimeout:       10 * time.Second,
		ReadTimeout:       0,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 5 * time.Minute,
	}
}
