// Package natsbus is a connectionless transport backed by a shared NATS
// connection: instead of one socket per peer (pkg/transport/tcp,
// pkg/transport/ws), every node publishes onto and subscribes from subjects
// under a common prefix, grounded on the teacher's clusterNATSEventBus.
//
// Unlike the stream transports, there is no per-peer WorkerPair: one
// sender and one receiver serve every destination node, and the target
// node's identity travels as the next onward-route hop's address value
// rather than as a dialed connection.
package natsbus

import "time"

// TransportType is the address transport type this package's Router
// resolves: non-local addresses with this transport type name a remote
// node by its NodeID in their Value.
const TransportType uint8 = 3

// Config controls the shared NATS connection and subject namespace.
type Config struct {
	// URL is the NATS server URL, e.g. "nats://127.0.0.1:4222".
	URL string
	// Prefix is prepended to every subject. Default: "ockam".
	Prefix string
	// NodeID names this node's own inbound subject. Required — messages
	// addressed to this NodeID over this transport are delivered here.
	NodeID string
	// RequestTimeout is unused by Send/Forward (natsbus only moves
	// fire-and-forget TransportMessages) and reserved for a future
	// request/reply mode.
	RequestTimeout time.Duration
}

// DefaultConfig fills in the teacher's defaults (prefix, request timeout)
// but leaves URL/NodeID for the caller to set.
func DefaultConfig() Config {
	return Config{
		Prefix:         "ockam",
		RequestTimeout: 5 * time.Second,
	}
}

func (c Config) subjectFor(nodeID string) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = "ockam"
	}
	return prefix + ".send." + nodeID
}
