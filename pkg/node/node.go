// Package node implements the node runtime built on top of pkg/router's
// address registry: the Context API workers and processors use to send,
// receive, and manage each other, plus the relay goroutines that drive a
// Worker's or Processor's message loop.
package node

import (
	"context"
	"time"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/concurrency"
	"github.com/ockamio/ockam/pkg/logging"
	"github.com/ockamio/ockam/pkg/router"
)

// DefaultReceiveTimeout bounds a plain Receive call with no explicit
// deadline, matching the 30-second default used throughout the corpus this
// runtime is grounded on.
const DefaultReceiveTimeout = 30 * time.Second

// DefaultStopGrace bounds Context.Stop's graceful shutdown when no explicit
// timeout is given.
const DefaultStopGrace = 5 * time.Second

// Node owns the registry and the defaults every Context it creates
// inherits: mailbox capacity, receive timeout, and the pluggable metrics
// and tracing sinks.
type Node struct {
	router          *router.Router
	logger          logging.Logger
	mailboxCapacity int
	defaultTimeout  time.Duration
	defaultStopGrace time.Duration
	metrics         MetricsSink
	tracer          Tracer
}

// NewNode creates a node runtime with an empty registry. A nil logger gets
// a default logging.Logger.
func NewNode(logger logging.Logger) *Node {
	if logger == nil {
		logger = logging.New()
	}
	return &Node{
		router:           router.New(logger),
		logger:           logger,
		mailboxCapacity:  concurrency.DefaultCapacity,
		defaultTimeout:   DefaultReceiveTimeout,
		defaultStopGrace: DefaultStopGrace,
		metrics:          noopMetrics{},
		tracer:           noopTracer{},
	}
}

// Router exposes the underlying registry, for transport packages that need
// to call RegisterTransportRouter directly.
func (n *Node) Router() *router.Router { return n.router }

// Logger returns the node's logger.
func (n *Node) Logger() logging.Logger { return n.logger }

// SetMetricsSink installs a non-default metrics sink. Passing nil is a
// no-op — the node keeps whatever sink is already installed.
func (n *Node) SetMetricsSink(m MetricsSink) {
	if m != nil {
		n.metrics = m
	}
}

// SetTracer installs a non-default tracer. Passing nil is a no-op.
func (n *Node) SetTracer(t Tracer) {
	if t != nil {
		n.tracer = t
	}
}

// SetMailboxCapacity changes the mailbox capacity used for Contexts created
// from this point on. Existing Contexts keep whatever capacity they were
// created with.
func (n *Node) SetMailboxCapacity(capacity int) {
	if capacity > 0 {
		n.mailboxCapacity = capacity
	}
}

// NewContext creates a bare context: registered in the router under a
// single address, with a mailbox, but with no backing relay goroutine. The
// caller drives it directly via Send/Receive — the pattern used for
// request/response call sites and for tests. Bare contexts are registered
// in a reserved cluster so StopNode(Graceful) drains them last, after any
// application worker that might still be replying to them.
func (n *Node) NewContext(address addr.Address) (*Context, error) {
	const bareCluster = "_internals.bare"

	mailbox := concurrency.NewBoundedMailbox(n.mailboxCapacity)
	goCtx, cancel := context.WithCancel(context.Background())
	c := &Context{
		node:          n,
		address:       addr.NewSet(address),
		mailbox:       mailbox,
		ctx:           goCtx,
		cancel:        cancel,
		accessControl: AllowAll,
		cluster:       bareCluster,
		bare:          true,
	}

	done := make(chan struct{})
	close(done)
	if err := n.router.StartWorker(c.address, mailbox, done, bareCluster, true); err != nil {
		cancel()
		return nil, err
	}
	return c, nil
}
