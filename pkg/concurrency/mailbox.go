// Package concurrency provides the bounded mailbox and worker-pool
// primitives used by the node runtime. It hides channel and select
// mechanics behind a small blocking/non-blocking message-passing API.
package concurrency

import (
	"context"
	"errors"
)

var (
	// ErrMailboxClosed is returned by Send/Receive/TryReceive once Close has
	// been called.
	ErrMailboxClosed = errors.New("concurrency: mailbox is closed")

	// ErrMailboxFull is returned by Send when the mailbox is at capacity —
	// the caller's backpressure signal.
	ErrMailboxFull = errors.New("concurrency: mailbox is full")
)

// DefaultCapacity is the mailbox size used when a worker does not request
// a specific one, matching the node runtime's default.
const DefaultCapacity = 32

// Mailbox is the bounded inbox backing a single worker or processor. Each
// worker owns exactly one mailbox; only the router and the worker's own
// context ever hold a reference to it.
type Mailbox interface {
	// Send enqueues a message. Non-blocking: returns ErrMailboxFull instead
	// of blocking when the mailbox is at capacity.
	Send(msg interface{}) error

	// Receive blocks until a message is available, ctx is done, or the
	// mailbox is closed.
	Receive(ctx context.Context) (interface{}, error)

	// TryReceive returns immediately: (msg, true, nil) if one was waiting,
	// (nil, false, nil) if the mailbox was empty.
	TryReceive() (interface{}, bool, error)

	// Close closes the mailbox. Idempotent.
	Close()

	// Capacity returns the mailbox's maximum size.
	Capacity() int

	// Size returns the number of messages currently queued.
	Size() int

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}
