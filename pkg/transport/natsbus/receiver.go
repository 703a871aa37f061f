package natsbus

import (
	"github.com/nats-io/nats.go"

	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/wire"
)

// recvProcessor drains this node's inbound subject and forwards each
// decoded message into the node runtime. Subscribed with a queue group
// matching the subject name, mirroring the teacher's clusterNATSConsumer
// send/request subscriptions: if a node ever runs more than one receiver
// on the same NodeID, exactly one gets each message.
type recvProcessor struct {
	sub       *nats.Subscription
	ch        chan *nats.Msg
	deliverTo *node.Context
}

func (r *recvProcessor) Initialize(ctx *node.Context) error { return nil }

func (r *recvProcessor) Process(ctx *node.Context) (bool, error) {
	msg, ok := <-r.ch
	if !ok {
		return false, nil
	}

	tm, err := wire.DecodeTransportMessage(msg.Data)
	if err != nil {
		ctx.Node().Logger().Warnf("natsbus receiver: malformed transport message: %v", err)
		return true, nil
	}

	// Prepend the paired sender's public address so a reply to this
	// message's return route resolves back out over this connection
	// instead of dead-ending at the origin node's own local address.
	tm.ReturnRoute = tm.ReturnRoute.Prepend(r.deliverTo.Address())

	local := wire.NewLocalMessage(tm)
	if err := node.Forward(r.deliverTo, local); err != nil {
		ctx.Node().Logger().Warnf("natsbus receiver: forward failed: %v", err)
	}
	return true, nil
}

func (r *recvProcessor) Shutdown(ctx *node.Context) error {
	_ = r.sub.Unsubscribe()
	return ctx.StopProcessor(ctx.Address())
}
