package node

import (
	"context"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/wire"
)

// Worker is a statically-typed message handler: M is the message type this
// worker expects to find in every LocalMessage payload delivered to its
// mailbox. A decode failure never reaches HandleMessage — see Context's
// relay loop.
type Worker[M any] interface {
	// Initialize runs once, before the relay starts pulling messages off
	// the mailbox. The registry entry is marked ready only after this
	// returns without error.
	Initialize(ctx *Context) error

	// HandleMessage runs once per successfully decoded, authorized inbound
	// message, strictly in mailbox order.
	HandleMessage(ctx *Context, msg *Routed[M]) error

	// Shutdown runs once, after the relay stops pulling new messages
	// (mailbox closed or node stopping), before its goroutine exits.
	Shutdown(ctx *Context) error
}

// Processor is a worker that drives its own loop instead of reacting to
// inbound messages one at a time — a polling source, a periodic task, a
// connection reader. Process is called repeatedly until it returns
// continue=false or a non-nil error.
type Processor interface {
	Initialize(ctx *Context) error
	Process(ctx *Context) (cont bool, err error)
	Shutdown(ctx *Context) error
}

// RawWorker is the untyped counterpart to Worker[M]: instead of a single
// declared message type decoded for it, a RawWorker sees every inbound
// LocalMessage exactly as it arrived, along with which of its addresses it
// was sent to. Transport sender workers use this — a single mailbox fields
// both small in-process control messages (addressed to an internal
// address only the transport package itself ever sends to) and arbitrary
// application payloads (addressed to the public address other workers
// send through), and no single M could describe both.
type RawWorker interface {
	Initialize(ctx *Context) error
	HandleRaw(ctx *Context, recipient addr.Address, local wire.LocalMessage) error
	Shutdown(ctx *Context) error
}

// MetricsSink receives point-in-time observations from the node runtime.
// The default sink, installed by NewNode, discards everything; pkg/metrics
// provides a Prometheus-backed implementation wired in by cmd/ockamd.
type MetricsSink interface {
	ObserveMailboxSize(address string, size int)
	ObserveRegistrySize(n int)
	ObserveDrop(address, reason string)
}

// Tracer starts a span around a unit of node work. The default tracer,
// installed by NewNode, is a no-op; pkg/telemetry provides an OpenTelemetry
// implementation wired in by cmd/ockamd.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, func())
}

type noopMetrics struct{}

func (noopMetrics) ObserveMailboxSize(string, int) {}
func (noopMetrics) ObserveRegistrySize(int)         {}
func (noopMetrics) ObserveDrop(string, string)      {}

type noopTracer struct{}

func (noopTracer) StartSpan(ctx context.Context, _ string) (context.Context, func()) {
	return ctx, func() {}
}
