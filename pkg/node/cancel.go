package node

import (
	"runtime"
	"sync/atomic"
)

// Cancel wraps a message pulled off a mailbox by Receive/ReceiveTimeout/
// ReceiveMatch with a peek-with-commit discipline: call Msg to accept the
// message, or let the Cancel value be discarded (go out of scope, get
// garbage collected) to have it requeued to the same mailbox instead of
// silently lost. This mirrors Drop-based cancellation safety in the
// original Rust implementation; Go has no deterministic destructors, so the
// requeue-on-drop path runs from a finalizer and is therefore best-effort,
// not a guarantee — callers that need certainty should call Msg or Discard
// explicitly rather than relying on GC timing.
type Cancel[M any] struct {
	routed   *Routed[M]
	item     *mailboxItem
	ctx      *Context
	consumed int32
}

func newCancel[M any](ctx *Context, routed *Routed[M], item *mailboxItem) *Cancel[M] {
	c := &Cancel[M]{routed: routed, item: item, ctx: ctx}
	runtime.SetFinalizer(c, finalizeCancel[M])
	return c
}

func finalizeCancel[M any](c *Cancel[M]) {
	if atomic.CompareAndSwapInt32(&c.consumed, 0, 1) {
		c.ctx.node.logger.WithContext(c.ctx.loggingContext()).
			Warnf("requeuing unconsumed message to %s (dropped without Msg/Discard)", c.routed.Recipient())
		c.ctx.requeueSelf(c.item)
	}
}

// Msg accepts the message, returning the decoded Routed value. After Msg is
// called the message will not be requeued even if the Cancel value is
// later discarded.
func (c *Cancel[M]) Msg() *Routed[M] {
	atomic.StoreInt32(&c.consumed, 1)
	runtime.SetFinalizer(c, nil)
	return c.routed
}

// Discard explicitly requeues the message to the owning mailbox without
// waiting on the garbage collector, and marks it consumed so the finalizer
// is a no-op.
func (c *Cancel[M]) Discard() {
	if atomic.CompareAndSwapInt32(&c.consumed, 0, 1) {
		runtime.SetFinalizer(c, nil)
		c.ctx.requeueSelf(c.item)
	}
}
