package natsbus

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/wire"
)

// senderWorker publishes outbound LocalMessages onto the destination node's
// subject. Unlike pkg/transport/tcp/ws's senderWorker, a single instance
// serves every peer: the destination NodeID travels as the next onward-route
// hop's address value, read before that hop is stepped off.
//
// A RawWorker rather than a Worker[M] for the same underlying reason as the
// stream transports: the payload shape is an opaque already-encoded
// TransportMessage body, not a single declared application type.
type senderWorker struct {
	nc  *nats.Conn
	cfg Config
}

func (s *senderWorker) Initialize(ctx *node.Context) error { return nil }

func (s *senderWorker) HandleRaw(ctx *node.Context, recipient addr.Address, local wire.LocalMessage) error {
	next := local.TransportMessage.OnwardRoute.Next()
	nodeID := next.Value
	if nodeID == "" {
		return fmt.Errorf("natsbus: onward route has no destination node id")
	}

	stepped := local.TransportMessage.Step()
	data, err := wire.EncodeTransportMessage(stepped)
	if err != nil {
		return err
	}

	return s.nc.Publish(s.cfg.subjectFor(nodeID), data)
}

func (s *senderWorker) Shutdown(ctx *node.Context) error { return nil }
