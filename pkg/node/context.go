package node

import (
	"context"
	"time"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/concurrency"
	"github.com/ockamio/ockam/pkg/logging"
	"github.com/ockamio/ockam/pkg/router"
	"github.com/ockamio/ockam/pkg/wire"
)

// maxRequeueAttempts bounds how many times a message that fails to decode
// against a worker's declared type is requeued to the same mailbox before
// it is dropped and logged. Without a bound, a message that can never
// decode (wrong type registered against an address, a corrupt payload)
// would busyloop the relay forever.
const maxRequeueAttempts = 5

// Context is a node-runtime handle: one per worker, processor, or bare
// caller, bound to one address set, one mailbox, and one AccessControl.
// All the package-level Send/Receive/StartWorker functions take a *Context
// as their first argument; they are free functions rather than methods
// because Go methods cannot carry their own type parameters, and these
// operations are generic over the message type M.
type Context struct {
	node          *Node
	address       addr.Set
	mailbox       concurrency.Mailbox
	ctx           context.Context
	cancel        context.CancelFunc
	accessControl AccessControl
	cluster       string
	bare          bool
}

// Address returns the context's primary address.
func (c *Context) Address() addr.Address { return c.address.Primary() }

// Addresses returns every address this context is registered under.
func (c *Context) Addresses() addr.Set { return c.address }

// Done reports when the context's relay loop has been asked to stop —
// either its mailbox was closed or the node is stopping. Processors select
// on this to know when to stop calling Process.
func (c *Context) Done() <-chan struct{} { return c.ctx.Done() }

// Node returns the owning node runtime.
func (c *Context) Node() *Node { return c.node }

// SetAccessControl installs a new AccessControl, effective starting with
// the next message this context receives.
func (c *Context) SetAccessControl(ac AccessControl) {
	if ac == nil {
		ac = AllowAll
	}
	c.accessControl = ac
}

func (c *Context) loggingContext() context.Context {
	return logging.ContextWithAddress(context.Background(), c.address.Primary().String())
}

// StopWorker deregisters the worker at address a and closes its mailbox.
func (c *Context) StopWorker(a addr.Address) error { return c.node.router.Stop(a) }

// StopProcessor deregisters the processor at address a and closes its
// mailbox.
func (c *Context) StopProcessor(a addr.Address) error { return c.node.router.Stop(a) }

// ListWorkers returns the primary address of every worker and processor
// currently registered on the node.
func (c *Context) ListWorkers() []addr.Address { return c.node.router.ListWorkers() }

// SetCluster moves this context to a different shutdown-ordering cluster.
func (c *Context) SetCluster(cluster string) error {
	if err := c.node.router.SetCluster(c.address.Primary(), cluster); err != nil {
		return err
	}
	c.cluster = cluster
	return nil
}

// WaitFor blocks until the worker or processor at address a has completed
// its Initialize call, or ctx is done.
func (c *Context) WaitFor(ctx context.Context, a addr.Address) error {
	return c.node.router.WaitFor(ctx, a)
}

// Register binds tr as the TransportRouter for the given transport type,
// so outbound messages to addresses of that type resolve through it. Fails
// if a router is already registered for that type.
func (c *Context) Register(transportType uint8, tr router.TransportRouter) error {
	return c.node.router.RegisterTransportRouter(transportType, tr)
}

// Stop gracefully tears down the whole node: every cluster is drained in
// reverse-registration order, reserved (_internals./ockam.) clusters last,
// each bounded by DefaultStopGrace.
func (c *Context) Stop() error {
	return c.node.router.StopNode(router.Graceful, c.node.defaultStopGrace)
}

// StopTimeout is Stop with an explicit per-cluster grace period.
func (c *Context) StopTimeout(grace time.Duration) error {
	return c.node.router.StopNode(router.Graceful, grace)
}

// StopNow tears down the whole node immediately: every mailbox is closed
// at once, with no ordering and no wait for relay goroutines to exit.
func (c *Context) StopNow() error {
	return c.node.router.StopNode(router.Immediate, 0)
}

// Forward resolves the next hop of local's onward route and delivers local
// exactly as received — no route is stepped or stamped, matching a
// transparent relay's behavior. Callers that are originating a new message
// rather than relaying one they received should use Send/SendFromAddress
// instead.
func Forward(c *Context, local wire.LocalMessage) error {
	return c.deliver(local)
}

// Send originates a message addressed to route, with this context's
// primary address as the sender.
func Send[M any](c *Context, route addr.Route, msg M) error {
	return SendFromAddress(c, route, msg, c.address.Primary())
}

// SendFromAddress originates a message addressed to route as if sent from
// a specific one of this context's addresses, so replies are routed back
// to that alias instead of the primary address. The return route starts
// empty and is stamped with from here, at origination. Forward and the
// transport senders leave it untouched; a transport receiver prepends its
// paired sender's address when a message arrives over its connection.
func SendFromAddress[M any](c *Context, route addr.Route, msg M, from addr.Address) error {
	if route.Empty() {
		return &Error{Code: CodeNoMatch, Message: "node: send requires a non-empty route"}
	}
	payload, err := wire.EncodePayload(msg)
	if err != nil {
		return errDecodeFailed(err)
	}
	tm := wire.NewTransportMessage(route, addr.NewRoute(), payload)
	tm = tm.StampReturn(from)
	return c.deliver(wire.NewLocalMessage(tm))
}

// deliver resolves the next hop of local's onward route and hands it to
// that hop's mailbox unchanged. Both a direct local delivery and a
// transport hand-off look identical from here: the difference is entirely
// in how the recipient relay interprets the item, a domain Worker decoding
// its Payload as M, a transport sender instead treating the whole
// LocalMessage as the unit to step and frame.
func (c *Context) deliver(local wire.LocalMessage) error {
	if local.TransportMessage.OnwardRoute.Empty() {
		return &Error{Message: "node: onward route exhausted with no recipient"}
	}
	target := local.TransportMessage.OnwardRoute.Next()
	mailbox, _, err := c.node.router.Resolve(target)
	if err != nil {
		return err
	}
	item := &mailboxItem{local: local, recipient: target}
	if err := mailbox.Send(item); err != nil {
		c.node.metrics.ObserveDrop(target.String(), "mailbox_send_failed")
		return err
	}
	return nil
}

// requeueSelf schedules item to be re-delivered to this context's own
// mailbox after a backoff proportional to how many times it has already
// failed, up to maxRequeueAttempts. Past that bound the message is
// dropped and logged rather than retried forever — a message that cannot
// decode against this worker's declared type never will, absent a code
// change, so unbounded retry only wastes the mailbox slot a real message
// could use.
func (c *Context) requeueSelf(item *mailboxItem) {
	item.attempts++
	if item.attempts > maxRequeueAttempts {
		c.node.logger.WithContext(c.loggingContext()).
			Warnf("dropping message to %s after %d failed decode attempts", item.recipient, item.attempts-1)
		c.node.metrics.ObserveDrop(item.recipient.String(), "decode_exhausted")
		return
	}
	delay := requeueBackoff(item.attempts)
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		if err := c.mailbox.Send(item); err != nil {
			c.node.logger.WithContext(c.loggingContext()).Warnf("requeue failed: %v", err)
		}
	}()
}

func requeueBackoff(attempt int) time.Duration {
	d := time.Duration(attempt*attempt) * 10 * time.Millisecond
	const ceiling = 500 * time.Millisecond
	if d > ceiling {
		return ceiling
	}
	return d
}

// StartWorker registers and starts a new worker under set, as a child of
// parent. The worker's relay goroutine calls Initialize, then repeatedly
// pulls messages off its mailbox — decoding each against M, checking
// AccessControl, and dispatching to HandleMessage in strict mailbox order
// — until the mailbox is closed, finally calling Shutdown.
func StartWorker[M any](parent *Context, set addr.Set, w Worker[M], cluster string, ac AccessControl) (*Context, error) {
	if ac == nil {
		ac = AllowAll
	}
	n := parent.node
	mailbox := concurrency.NewBoundedMailbox(n.mailboxCapacity)
	goCtx, cancel := context.WithCancel(context.Background())
	child := &Context{
		node:          n,
		address:       set,
		mailbox:       mailbox,
		ctx:           goCtx,
		cancel:        cancel,
		accessControl: ac,
		cluster:       cluster,
	}

	done := make(chan struct{})
	if err := n.router.StartWorker(set, mailbox, done, cluster, false); err != nil {
		cancel()
		return nil, err
	}
	go runWorkerRelay(child, w, done)
	return child, nil
}

// StartRawWorker registers and starts a new RawWorker under set, as a
// child of parent. Unlike StartWorker, no decode happens before dispatch —
// the worker receives every LocalMessage exactly as delivered, along with
// which of its addresses it was sent to.
func StartRawWorker(parent *Context, set addr.Set, w RawWorker, cluster string, ac AccessControl) (*Context, error) {
	if ac == nil {
		ac = AllowAll
	}
	n := parent.node
	mailbox := concurrency.NewBoundedMailbox(n.mailboxCapacity)
	goCtx, cancel := context.WithCancel(context.Background())
	child := &Context{
		node:          n,
		address:       set,
		mailbox:       mailbox,
		ctx:           goCtx,
		cancel:        cancel,
		accessControl: ac,
		cluster:       cluster,
	}

	done := make(chan struct{})
	if err := n.router.StartWorker(set, mailbox, done, cluster, false); err != nil {
		cancel()
		return nil, err
	}
	go runRawWorkerRelay(child, w, done)
	return child, nil
}

// StartProcessor registers and starts a new processor under set, as a
// child of parent. The processor's relay goroutine calls Initialize, then
// repeatedly calls Process until it returns false or an error, finally
// calling Shutdown.
func StartProcessor(parent *Context, set addr.Set, p Processor, cluster string) (*Context, error) {
	n := parent.node
	mailbox := concurrency.NewBoundedMailbox(n.mailboxCapacity)
	goCtx, cancel := context.WithCancel(context.Background())
	child := &Context{
		node:          n,
		address:       set,
		mailbox:       mailbox,
		ctx:           goCtx,
		cancel:        cancel,
		accessControl: AllowAll,
		cluster:       cluster,
	}

	done := make(chan struct{})
	if err := n.router.StartProcessor(set, mailbox, done, cluster); err != nil {
		cancel()
		return nil, err
	}
	go runProcessorRelay(child, p, done)
	return child, nil
}
