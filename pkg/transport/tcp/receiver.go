package tcp

import (
	"io"
	"net"
	"time"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/wire"
)

// recvProcessor reads length-prefixed frames off conn and forwards each
// decoded message into the node runtime. It is a Processor rather than a
// Worker because its loop is driven by connection reads, not by inbound
// mailbox messages — it has no mailbox traffic of its own.
type recvProcessor struct {
	conn         net.Conn
	peer         string
	internalAddr addr.Address
	deliverTo    *node.Context
	cfg          Config
}

func (r *recvProcessor) Initialize(ctx *node.Context) error { return nil }

func (r *recvProcessor) Process(ctx *node.Context) (bool, error) {
	if r.cfg.ReadTimeout > 0 {
		_ = r.conn.SetReadDeadline(time.Now().Add(r.cfg.ReadTimeout))
	}

	frame, err := wire.ReadFrame(r.conn)
	if err != nil {
		if err != io.EOF {
			ctx.Node().Logger().Warnf("tcp receiver for %s: read error: %v", r.peer, err)
		}
		_ = node.SendFromAddress(r.deliverTo, addr.NewRoute(r.internalAddr), controlMsg{Kind: controlConnectionClosed}, ctx.Address())
		return false, nil
	}

	if len(frame) == 0 {
		// Heartbeat/keepalive frame: nothing to deliver.
		return true, nil
	}

	tm, err := wire.DecodeTransportMessage(frame)
	if err != nil {
		ctx.Node().Logger().Warnf("tcp receiver for %s: malformed transport message: %v", r.peer, err)
		return true, nil
	}

	// Prepend the paired sender's public address so a reply to this
	// message's return route resolves back out over this connection
	// instead of dead-ending at the origin node's own local address.
	tm.ReturnRoute = tm.ReturnRoute.Prepend(r.deliverTo.Address())

	local := wire.NewLocalMessage(tm)
	if err := node.Forward(r.deliverTo, local); err != nil {
		ctx.Node().Logger().Warnf("tcp receiver for %s: forward failed: %v", r.peer, err)
	}
	return true, nil
}

func (r *recvProcessor) Shutdown(ctx *node.Context) error {
	_ = r.conn.Close()
	return ctx.StopProcessor(ctx.Address())
}
