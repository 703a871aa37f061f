package concurrency

import (
	"context"
	"sync/atomic"
)

// boundedMailbox implements Mailbox over a buffered channel.
type boundedMailbox struct {
	ch       chan interface{}
	closed   int32
	capacity int
}

// NewBoundedMailbox creates a mailbox with the given capacity. A capacity
// below 1 falls back to DefaultCapacity.
func NewBoundedMailbox(capacity int) Mailbox {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &boundedMailbox{
		ch:       make(chan interface{}, capacity),
		capacity: capacity,
	}
}

func (mb *boundedMailbox) Send(msg interface{}) error {
	if atomic.LoadInt32(&mb.closed) == 1 {
		return ErrMailboxClosed
	}
	select {
	case mb.ch <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

func (mb *boundedMailbox) Receive(ctx context.Context) (interface{}, error) {
	if atomic.LoadInt32(&mb.closed) == 1 {
		return nil, ErrMailboxClosed
	}
	select {
	case msg, ok := <-mb.ch:
		if !ok {
			return nil, ErrMailboxClosed
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (mb *boundedMailbox) TryReceive() (interface{}, bool, error) {
	if atomic.LoadInt32(&mb.closed) == 1 {
		return nil, false, ErrMailboxClosed
	}
	select {
	case msg, ok := <-mb.ch:
		if !ok {
			return nil, false, ErrMailboxClosed
		}
		return msg, true, nil
	default:
		return nil, false, nil
	}
}

func (mb *boundedMailbox) Close() {
	if atomic.CompareAndSwapInt32(&mb.closed, 0, 1) {
		close(mb.ch)
	}
}

func (mb *boundedMailbox) Capacity() int {
	return mb.capacity
}

func (mb *boundedMailbox) Size() int {
	return len(mb.ch)
}

func (mb *boundedMailbox) IsClosed() bool {
	return atomic.LoadInt32(&mb.closed) == 1
}
