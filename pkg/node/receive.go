package node

import (
	"context"
	"errors"
	"time"

	"github.com/ockamio/ockam/pkg/concurrency"
	"github.com/ockamio/ockam/pkg/wire"
)

// Receive blocks for up to this node's default receive timeout for a
// message decodable as M, returning a Cancel handle the caller must
// consume with Msg (or explicitly Discard).
func Receive[M any](c *Context) (*Cancel[M], error) {
	return ReceiveTimeout[M](c, c.node.defaultTimeout)
}

// ReceiveTimeout is Receive with an explicit deadline.
func ReceiveTimeout[M any](c *Context, timeout time.Duration) (*Cancel[M], error) {
	deadline, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	for {
		raw, err := c.mailbox.Receive(deadline)
		if err != nil {
			return nil, translateReceiveErr(err)
		}
		item := raw.(*mailboxItem)

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
		return newCancel(c, routed, item), nil
	}
}

// ReceiveMatch blocks up to timeout for the first message decodable as M
// for which match returns true. Messages seen along the way that do not
// match are re-queued to the same mailbox once the call returns (either
// with a match or by timing out), so no message is lost — but their
// relative order with respect to messages that arrived during the wait is
// not preserved.
func ReceiveMatch[M any](c *Context, timeout time.Duration, match func(M) bool) (*Cancel[M], error) {
	deadlineAt := time.Now().Add(timeout)
	var requeue []*mailboxItem
	defer func() {
		for _, item := range requeue {
			_ = c.mailbox.Send(item)
		}
	}()

	for {
		remaining := time.Until(deadlineAt)
		if remaining <= 0 {
			return nil, errNoMatch()
		}
		deadline, cancel := context.WithTimeout(c.ctx, remaining)
		raw, err := c.mailbox.Receive(deadline)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, errNoMatch()
			}
			return nil, translateReceiveErr(err)
		}
		item := raw.(*mailboxItem)

		if !c.accessControl.IsAuthorized(item.local) {
			c.node.metrics.ObserveDrop(item.recipient.String(), "unauthorized")
			continue
		}

		var msg M
		if err := wire.DecodePayload(item.local.TransportMessage.Payload, &msg); err != nil {
			c.requeueSelf(item)
			continue
		}

		if !match(msg) {
			requeue = append(requeue, item)
			continue
		}

		routed := &Routed[M]{msg: msg, recipient: item.recipient, local: item.local}
		return newCancel(c, routed, item), nil
	}
}

func translateReceiveErr(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeTimeout, Message: "node: receive timed out"}
	case errors.Is(err, concurrency.ErrMailboxClosed):
		return &Error{Code: CodeMailboxClosed, Message: "node: mailbox closed"}
	default:
		return err
	}
}
