package main

import "github.com/ockamio/ockam/pkg/node"

// echoPayload is the message body the sample echo worker below exchanges
// with callers: whatever Text it receives comes back unchanged.
type echoPayload struct {
	Text string `cbor:"0,keyasint"`
}

// echoWorker answers every message it receives by sending the same
// payload back down the accumulated return route — useful for smoke
// testing a node's wiring end to end, including through a secure channel.
type echoWorker struct{}

func (echoWorker) Initialize(ctx *node.Context) error { return nil }

func (echoWorker) HandleMessage(ctx *node.Context, msg *node.Routed[echoPayload]) error {
	ctx.Node().Logger().Infof("echo: replying to %q on return route %v", msg.Msg().Text, msg.ReturnRoute())
	return node.Send(ctx, msg.ReturnRoute(), msg.Msg())
}

func (echoWorker) Shutdown(ctx *node.Context) error { return nil }
