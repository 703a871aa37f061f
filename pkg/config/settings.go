package config

import "time"

// NodeSettings is the top-level YAML/JSON document this package loads for
// one ockam node process: node-wide defaults plus the settings of
// whichever transports and secure channel listeners that node's binary
// wires up. Every field has a sensible zero value so a partial file (or
// none at all) still produces a usable configuration once ApplyDefaults
// runs.
type NodeSettings struct {
	Node          NodeSection          `yaml:"node" json:"node"`
	TCP           *TCPSection          `yaml:"tcp,omitempty" json:"tcp,omitempty"`
	WebSocket     *WebSocketSection    `yaml:"websocket,omitempty" json:"websocket,omitempty"`
	NATS          *NATSSection         `yaml:"nats,omitempty" json:"nats,omitempty"`
	SecureChannel SecureChannelSection `yaml:"secure_channel" json:"secure_channel"`
}

// NodeSection mirrors the tunables node.Node exposes to its caller.
type NodeSection struct {
	// MailboxCapacity bounds how many undelivered messages a worker's
	// mailbox holds before a send to it fails as full. 0 means "use the
	// runtime default".
	MailboxCapacity int `yaml:"mailbox_capacity" json:"mailbox_capacity"`
	// ReceiveTimeout bounds a plain Receive call with no explicit deadline.
	ReceiveTimeout time.Duration `yaml:"receive_timeout" json:"receive_timeout"`
	// StopGrace bounds how long graceful shutdown waits for a cluster to
	// drain before the next cluster is stopped.
	StopGrace time.Duration `yaml:"stop_grace" json:"stop_grace"`
}

// TCPSection mirrors pkg/transport/tcp.Config plus the address this node
// listens on for inbound TCP connections.
type TCPSection struct {
	ListenAddr        string        `yaml:"listen_addr" json:"listen_addr"`
	DialTimeout       time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" json:"write_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" json:"heartbeat_interval"`
}

// WebSocketSection mirrors pkg/transport/ws.Config plus the listen address
// and upgrade path this node accepts inbound WebSocket connections on.
type WebSocketSection struct {
	ListenAddr        string        `yaml:"listen_addr" json:"listen_addr"`
	Path              string        `yaml:"path" json:"path"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" json:"write_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" json:"heartbeat_interval"`
}

// NATSSection mirrors pkg/transport/natsbus.Config.
type NATSSection struct {
	URL            string        `yaml:"url" json:"url"`
	Prefix         string        `yaml:"prefix" json:"prefix"`
	NodeID         string        `yaml:"node_id" json:"node_id"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// SecureChannelSection mirrors pkg/securechannel.Config's tunables.
type SecureChannelSection struct {
	Cluster          string        `yaml:"cluster" json:"cluster"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
}

// ApplyDefaults fills every zero-valued field with the owning package's
// own default, so a settings file only needs to name the values it wants
// to override. Pointer sections (TCP/WebSocket/NATS) left nil mean "this
// node does not run that transport" and are left nil.
func (s *NodeSettings) ApplyDefaults() {
	if s.Node.MailboxCapacity == 0 {
		s.Node.MailboxCapacity = 32
	}
	if s.Node.ReceiveTimeout == 0 {
		s.Node.ReceiveTimeout = 30 * time.Second
	}
	if s.Node.StopGrace == 0 {
		s.Node.StopGrace = 5 * time.Second
	}

	if s.TCP != nil {
		if s.TCP.DialTimeout == 0 {
			s.TCP.DialTimeout = 10 * time.Second
		}
		if s.TCP.WriteTimeout == 0 {
			s.TCP.WriteTimeout = 10 * time.Second
		}
		if s.TCP.HeartbeatInterval == 0 {
			s.TCP.HeartbeatInterval = 5 * time.Minute
		}
	}

	if s.WebSocket != nil {
		if s.WebSocket.Path == "" {
			s.WebSocket.Path = "/"
		}
		if s.WebSocket.HandshakeTimeout == 0 {
			s.WebSocket.HandshakeTimeout = 10 * time.Second
		}
		if s.WebSocket.WriteTimeout == 0 {
			s.WebSocket.WriteTimeout = 10 * time.Second
		}
		if s.WebSocket.HeartbeatInterval == 0 {
			s.WebSocket.HeartbeatInterval = 5 * time.Minute
		}
	}

	if s.NATS != nil {
		if s.NATS.Prefix == "" {
			s.NATS.Prefix = "ockam"
		}
		if s.NATS.RequestTimeout == 0 {
			s.NATS.RequestTimeout = 5 * time.Second
		}
	}

	if s.SecureChannel.Cluster == "" {
		s.SecureChannel.Cluster = "_internals.securechannel"
	}
	if s.SecureChannel.HandshakeTimeout == 0 {
		s.SecureChannel.HandshakeTimeout = 30 * time.Second
	}
}

// LoadNodeSettings loads a NodeSettings document from path (YAML or JSON,
// by extension), applies environment variable overrides under prefix, and
// fills every unset field with its package default.
func LoadNodeSettings(path, envPrefix string) (NodeSettings, error) {
	var settings NodeSettings
	if err := LoadWithEnv(path, envPrefix, &settings); err != nil {
		return NodeSettings{}, err
	}
	settings.ApplyDefaults()
	return settings, nil
}
