package ws

import (
	"github.com/gorilla/websocket"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/wire"
)

// recvProcessor reads binary WebSocket messages off conn and forwards each
// decoded message into the node runtime. It is a Processor rather than a
// Worker because its loop is driven by connection reads, not by inbound
// mailbox messages.
type recvProcessor struct {
	conn         *websocket.Conn
	peer         string
	internalAddr addr.Address
	deliverTo    *node.Context
}

func (r *recvProcessor) Initialize(ctx *node.Context) error { return nil }

func (r *recvProcessor) Process(ctx *node.Context) (bool, error) {
	kind, frame, err := r.conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			ctx.Node().Logger().Warnf("ws receiver for %s: read error: %v", r.peer, err)
		}
		_ = node.SendFromAddress(r.deliverTo, addr.NewRoute(r.internalAddr), controlMsg{Kind: controlConnectionClosed}, ctx.Address())
		return false, nil
	}

	if kind != websocket.BinaryMessage || len(frame) == 0 {
		// Heartbeat/keepalive or non-data frame: nothing to deliver.
		return true, nil
	}

	tm, err := wire.DecodeTransportMessage(frame)
	if err != nil {
		ctx.Node().Logger().Warnf("ws receiver for %s: malformed transport message: %v", r.peer, err)
		return true, nil
	}

	// Prepend the paired sender's public address so a reply to this
	// message's return route resolves back out over this connection
	// instead of dead-ending at the origin node's own local address.
	tm.ReturnRoute = tm.ReturnRoute.Prepend(r.deliverTo.Address())

	local := wire.NewLocalMessage(tm)
	if err := node.Forward(r.deliverTo, local); err != nil {
		ctx.Node().Logger().Warnf("ws receiver for %s: forward failed: %v", r.peer, err)
	}
	return true, nil
}

func (r *recvProcessor) Shutdown(ctx *node.Context) error {
	_ = r.conn.Close()
	return ctx.StopProcessor(ctx.Address())
}
