package tcp

import (
	"net"
	"time"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/wire"
)

// controlKind selects between the two in-process control messages a
// sender's internal address ever receives. Never put on the wire.
type controlKind uint8

const (
	controlHeartbeat        controlKind = 0
	controlConnectionClosed controlKind = 1
)

// controlMsg is the body of a message addressed to a sender's internal
// address.
type controlMsg struct {
	Kind controlKind `cbor:"0,keyasint"`
}

// WorkerPair is the pair of addresses backing one TCP connection: txAddr
// is where application workers send outbound messages, internalAddr is
// where the sender's own heartbeat and connection-closed notifications are
// addressed, and rxAddr names the companion receiver processor.
type WorkerPair struct {
	Peer         string
	TxAddr       addr.Address
	InternalAddr addr.Address
	RxAddr       addr.Address
}

// senderWorker frames outbound LocalMessages onto conn and answers its own
// heartbeat/connection-closed control messages. It is a RawWorker, not a
// Worker[M], because one mailbox fields two distinct message shapes
// depending on which of its two addresses a message was sent to.
type senderWorker struct {
	conn net.Conn
	peer string
	cfg  Config

	txAddr       addr.Address
	internalAddr addr.Address

	ctx   *node.Context
	timer *time.Timer
}

func (s *senderWorker) Initialize(ctx *node.Context) error {
	s.ctx = ctx
	s.scheduleHeartbeat()
	return nil
}

func (s *senderWorker) HandleRaw(ctx *node.Context, recipient addr.Address, local wire.LocalMessage) error {
	if s.timer != nil {
		s.timer.Stop()
	}

	var handleErr error
	if recipient.Equal(s.internalAddr) {
		handleErr = s.handleControl(ctx, local)
	} else {
		handleErr = s.handleOutbound(local)
	}

	if handleErr == nil {
		s.scheduleHeartbeat()
	}
	return handleErr
}

func (s *senderWorker) handleControl(ctx *node.Context, local wire.LocalMessage) error {
	var msg controlMsg
	if err := wire.DecodePayload(local.TransportMessage.Payload, &msg); err != nil {
		return err
	}
	switch msg.Kind {
	case controlHeartbeat:
		if err := s.writeFrame(nil); err != nil {
			s.stopAndUnregister(ctx)
			return err
		}
		return nil
	case controlConnectionClosed:
		// The receiver has already stopped itself; only close the
		// connection and deregister the sender side here.
		_ = s.conn.Close()
		return ctx.StopWorker(ctx.Address())
	default:
		return nil
	}
}

func (s *senderWorker) handleOutbound(local wire.LocalMessage) error {
	stepped := local.TransportMessage.Step()
	framed, err := wire.EncodeTransportMessage(stepped)
	if err != nil {
		return err
	}
	if err := s.writeFrame(framed); err != nil {
		s.stopAndUnregister(s.ctx)
		return err
	}
	return nil
}

func (s *senderWorker) writeFrame(payload []byte) error {
	if s.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return wire.WriteFrame(s.conn, payload)
}

func (s *senderWorker) scheduleHeartbeat() {
	if s.cfg.HeartbeatInterval <= 0 || s.ctx == nil {
		return
	}
	internalAddr := s.internalAddr
	ctx := s.ctx
	s.timer = time.AfterFunc(s.cfg.HeartbeatInterval, func() {
		_ = node.SendFromAddress(ctx, addr.NewRoute(internalAddr), controlMsg{Kind: controlHeartbeat}, s.txAddr)
	})
}

func (s *senderWorker) stopAndUnregister(ctx *node.Context) {
	_ = s.conn.Close()
	_ = ctx.StopWorker(ctx.Address())
}

func (s *senderWorker) Shutdown(ctx *node.Context) error {
	if s.timer != nil {
		s.timer.Stop()
	}
	_ = s.conn.Close()
	return nil
}

// StartWorkerPair registers a sender RawWorker and a receiver Processor
// for an established connection. cluster groups both under a reserved
// name so they are drained last during a graceful node stop.
func StartWorkerPair(parent *node.Context, conn net.Conn, peer string, cfg Config) (*WorkerPair, error) {
	txAddr := addr.RandomLocal()
	internalAddr := addr.RandomLocal()
	rxAddr := addr.RandomLocal()

	sender := &senderWorker{conn: conn, peer: peer, cfg: cfg, txAddr: txAddr, internalAddr: internalAddr}
	senderCtx, err := node.StartRawWorker(parent, addr.NewSet(txAddr, internalAddr), sender, "_internals.tcp", nil)
	if err != nil {
		return nil, err
	}

	recv := &recvProcessor{conn: conn, peer: peer, deliverTo: senderCtx, internalAddr: internalAddr, cfg: cfg}
	if _, err := node.StartProcessor(parent, addr.NewSet(rxAddr), recv, "_internals.tcp"); err != nil {
		_ = senderCtx.StopWorker(txAddr)
		return nil, err
	}

	return &WorkerPair{Peer: peer, TxAddr: txAddr, InternalAddr: internalAddr, RxAddr: rxAddr}, nil
}
