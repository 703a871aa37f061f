package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/concurrency"
	"github.com/ockamio/ockam/pkg/wire"
)

// runWorkerRelay is a worker's event loop: one goroutine, reading its own
// mailbox strictly in order, for the lifetime of the worker. It never
// hands a message to HandleMessage concurrently with another — sequential
// delivery is the whole point of a mailbox-per-worker design.
func runWorkerRelay[M any](c *Context, w Worker[M], done chan struct{}) {
	defer close(done)

	logger := c.node.logger.WithContext(c.loggingContext())

	if err := w.Initialize(c); err != nil {
		logger.Errorf("worker %s failed to initialize: %v", c.Address(), err)
		return
	}
	if err := c.node.router.SetReady(c.Address()); err != nil {
		logger.Warnf("worker %s could not mark itself ready: %v", c.Address(), err)
	}

	for {
		raw, err := c.mailbox.Receive(c.ctx)
		if err != nil {
			if !errors.Is(err, concurrency.ErrMailboxClosed) && !errors.Is(err, context.Canceled) {
				logger.Warnf("worker %s mailbox receive error: %v", c.Address(), err)
			}
			break
		}
		item, ok := raw.(*mailboxItem)
		if !ok {
			continue
		}
		c.node.metrics.ObserveMailboxSize(c.Address().String(), c.mailbox.Size())

		if !c.accessControl.IsAuthorized(item.local) {
			c.node.metrics.ObserveDrop(item.recipient.String(), "unauthorized")
			continue
		}

		var msg M
		if err := wire.DecodePayload(item.local.TransportMessage.Payload, &msg); err != nil {
			c.requeueSelf(item)
			continue
		}

		routed := &Routed[M]{msg: msg, recipient: item.recipient, local: item.local}
		spanCtx, endSpan := c.node.tracer.StartSpan(c.ctx, "worker.HandleMessage")
		_ = spanCtx
		if err := safeHandleMessage(c, w, routed); err != nil {
			logger.Warnf("worker %s HandleMessage error: %v", c.Address(), err)
		}
		endSpan()
	}

	if err := w.Shutdown(c); err != nil {
		logger.Errorf("worker %s shutdown error: %v", c.Address(), err)
	}
}

func safeHandleMessage[M any](c *Context, w Worker[M], routed *Routed[M]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in HandleMessage: %v", r)
		}
	}()
	return w.HandleMessage(c, routed)
}

// runRawWorkerRelay is the RawWorker counterpart of runWorkerRelay: no
// decode happens here, so a RawWorker can never be blocked by a
// decode-miss requeue loop — it sees exactly what was delivered.
func runRawWorkerRelay(c *Context, w RawWorker, done chan struct{}) {
	defer close(done)

	logger := c.node.logger.WithContext(c.loggingContext())

	if err := w.Initialize(c); err != nil {
		logger.Errorf("raw worker %s failed to initialize: %v", c.Address(), err)
		return
	}
	if err := c.node.router.SetReady(c.Address()); err != nil {
		logger.Warnf("raw worker %s could not mark itself ready: %v", c.Address(), err)
	}

	for {
		raw, err := c.mailbox.Receive(c.ctx)
		if err != nil {
			if !errors.Is(err, concurrency.ErrMailboxClosed) && !errors.Is(err, context.Canceled) {
				logger.Warnf("raw worker %s mailbox receive error: %v", c.Address(), err)
			}
			break
		}
		item, ok := raw.(*mailboxItem)
		if !ok {
			continue
		}
		c.node.metrics.ObserveMailboxSize(c.Address().String(), c.mailbox.Size())

		if !c.accessControl.IsAuthorized(item.local) {
			c.node.metrics.ObserveDrop(item.recipient.String(), "unauthorized")
			continue
		}

		if err := safeHandleRaw(c, w, item.recipient, item.local); err != nil {
			logger.Warnf("raw worker %s HandleRaw error: %v", c.Address(), err)
		}
	}

	if err := w.Shutdown(c); err != nil {
		logger.Errorf("raw worker %s shutdown error: %v", c.Address(), err)
	}
}

func safeHandleRaw(c *Context, w RawWorker, recipient addr.Address, local wire.LocalMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in HandleRaw: %v", r)
		}
	}()
	return w.HandleRaw(c, recipient, local)
}

// runProcessorRelay is a processor's event loop: Initialize once, then
// Process repeatedly until it says stop or the context is cancelled.
func runProcessorRelay(c *Context, p Processor, done chan struct{}) {
	defer close(done)

	logger := c.node.logger.WithContext(c.loggingContext())

	if err := p.Initialize(c); err != nil {
		logger.Errorf("processor %s failed to initialize: %v", c.Address(), err)
		return
	}
	if err := c.node.router.SetReady(c.Address()); err != nil {
		logger.Warnf("processor %s could not mark itself ready: %v", c.Address(), err)
	}

	for {
		select {
		case <-c.ctx.Done():
			goto shutdown
		default:
		}

		cont, err := safeProcess(c, p)
		if err != nil {
			logger.Warnf("processor %s error: %v", c.Address(), err)
		}
		if !cont || err != nil {
			break
		}
	}

shutdown:
	if err := p.Shutdown(c); err != nil {
		logger.Errorf("processor %s shutdown error: %v", c.Address(), err)
	}
}

func safeProcess(c *Context, p Processor) (cont bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in Process: %v", r)
		}
	}()
	return p.Process(c)
}
