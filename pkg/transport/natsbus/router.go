package natsbus

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
)

// Router implements pkg/router.TransportRouter for transport type 3. Unlike
// the stream transports there is no per-peer connection to resolve to: one
// shared sender serves every destination, so Resolve always returns the
// same address and the actual remote NodeID travels inside the message
// itself (read by the sender at publish time).
type Router struct {
	nc         *nats.Conn
	cfg        Config
	senderAddr addr.Address
	recv       *recvProcessor
}

// NewRouter connects to the configured NATS server, starts the shared
// sender worker and this node's receiver, and subscribes the receiver to
// cfg.NodeID's inbound subject under a queue group of the same name
// (matching the teacher's send/request subject subscriptions).
func NewRouter(parent *node.Context, cfg Config) (*Router, error) {
	if cfg.NodeID == "" {
		return nil, fmt.Errorf("natsbus: Config.NodeID is required")
	}

	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect %s: %w", cfg.URL, err)
	}

	senderAddr := addr.RandomLocal()
	sender := &senderWorker{nc: nc, cfg: cfg}
	senderCtx, err := node.StartRawWorker(parent, addr.NewSet(senderAddr), sender, "_internals.natsbus", nil)
	if err != nil {
		nc.Close()
		return nil, err
	}

	subject := cfg.subjectFor(cfg.NodeID)
	ch := make(chan *nats.Msg, 256)
	sub, err := nc.ChanQueueSubscribe(subject, subject, ch)
	if err != nil {
		nc.Close()
		_ = senderCtx.StopWorker(senderAddr)
		return nil, fmt.Errorf("natsbus: subscribe %s: %w", subject, err)
	}

	recv := &recvProcessor{sub: sub, ch: ch, deliverTo: senderCtx}
	if _, err := node.StartProcessor(parent, addr.NewSet(addr.RandomLocal()), recv, "_internals.natsbus"); err != nil {
		_ = sub.Unsubscribe()
		nc.Close()
		_ = senderCtx.StopWorker(senderAddr)
		return nil, err
	}

	return &Router{nc: nc, cfg: cfg, senderAddr: senderAddr, recv: recv}, nil
}

// Resolve satisfies router.TransportRouter. It does not validate that
// target.Value names a reachable node — an unreachable NodeID simply never
// has anything arrive on its subject.
func (r *Router) Resolve(target addr.Address) (addr.Address, error) {
	return r.senderAddr, nil
}

// Close unsubscribes the receiver and closes the shared NATS connection.
func (r *Router) Close() error {
	_ = r.recv.sub.Unsubscribe()
	r.nc.Close()
	return nil
}
