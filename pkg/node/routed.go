package node

import (
	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/wire"
)

// mailboxItem is the concrete value every mailbox carries internally,
// local-message plus the bookkeeping the relay needs that must never reach
// a worker: which of the entry's addresses this message targeted, and how
// many times decoding it has already been retried after a requeue.
type mailboxItem struct {
	local     wire.LocalMessage
	recipient addr.Address
	attempts  int
}

// Routed pairs a decoded message with the envelope it arrived in: which of
// the worker's addresses it was sent to (relevant to workers, like a
// transport sender, registered under more than one address) and the routes
// travelled so far.
type Routed[M any] struct {
	msg       M
	recipient addr.Address
	local     wire.LocalMessage
}

// Msg returns the decoded message body.
func (r *Routed[M]) Msg() M { return r.msg }

// Recipient returns which of the worker's registered addresses this
// message was sent to.
func (r *Routed[M]) Recipient() addr.Address { return r.recipient }

// OnwardRoute returns the onward route as delivered. Delivery does not step
// it, so it still starts with the recipient's own hop.
func (r *Routed[M]) OnwardRoute() addr.Route { return r.local.TransportMessage.OnwardRoute }

// ReturnRoute returns the route accumulated so far, to be used as the
// onward route of any reply.
func (r *Routed[M]) ReturnRoute() addr.Route { return r.local.TransportMessage.ReturnRoute }

// LocalMessage returns the full envelope, including any LocalInfo attached
// by secure channel decryption or other node-local middleware.
func (r *Routed[M]) LocalMessage() wire.LocalMessage { return r.local }
