package concurrency

import (
	"context"
	"testing"
)

func TestNewBoundedMailbox(t *testing.T) {
	mailbox := NewBoundedMailbox(10)
	if mailbox.Capacity() != 10 {
		t.Errorf("Capacity() = %d, want 10", mailbox.Capacity())
	}
}

func TestNewBoundedMailboxDefaultsOnInvalidCapacity(t *testing.T) {
	mailbox := NewBoundedMailbox(0)
	if mailbox.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", mailbox.Capacity(), DefaultCapacity)
	}
}

func TestMailboxSend(t *testing.T) {
	mailbox := NewBoundedMailbox(2)

	if err := mailbox.Send("message1"); err != nil {
		t.Errorf("Send() error = %v", err)
	}
	if err := mailbox.Send("message2"); err != nil {
		t.Errorf("Send() error = %v", err)
	}
	if err := mailbox.Send("message3"); err != ErrMailboxFull {
		t.Errorf("Send() to full mailbox error = %v, want ErrMailboxFull", err)
	}
}

func TestMailboxReceive(t *testing.T) {
	mailbox := NewBoundedMailbox(10)
	ctx := context.Background()

	if err := mailbox.Send("test message"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msg, err := mailbox.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if msg != "test message" {
		t.Errorf("Receive() = %v, want %q", msg, "test message")
	}
}

func TestMailboxReceiveRespectsContextCancellation(t *testing.T) {
	mailbox := NewBoundedMailbox(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mailbox.Receive(ctx); err != context.Canceled {
		t.Errorf("Receive() with cancelled ctx error = %v, want context.Canceled", err)
	}
}

func TestMailboxTryReceive(t *testing.T) {
	mailbox := NewBoundedMailbox(10)

	msg, ok, err := mailbox.TryReceive()
	if err != nil || ok || msg != nil {
		t.Errorf("TryReceive() on empty mailbox = (%v, %v, %v), want (nil, false, nil)", msg, ok, err)
	}

	if err := mailbox.Send("test"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	msg, ok, err = mailbox.TryReceive()
	if err != nil || !ok || msg != "test" {
		t.Errorf("TryReceive() = (%v, %v, %v), want (\"test\", true, nil)", msg, ok, err)
	}
}

func TestMailboxClose(t *testing.T) {
	mailbox := NewBoundedMailbox(10)
	mailbox.Close()

	if !mailbox.IsClosed() {
		t.Error("IsClosed() should return true after Close()")
	}
	if err := mailbox.Send("test"); err != ErrMailboxClosed {
		t.Errorf("Send() after close error = %v, want ErrMailboxClosed", err)
	}
	if _, err := mailbox.Receive(context.Background()); err != ErrMailboxClosed {
		t.Errorf("Receive() after close error = %v, want ErrMailboxClosed", err)
	}
}

func TestMailboxCloseIsIdempotent(t *testing.T) {
	mailbox := NewBoundedMailbox(10)
	mailbox.Close()
	mailbox.Close()
	if !mailbox.IsClosed() {
		t.Error("IsClosed() should remain true after repeated Close()")
	}
}

func TestMailboxSize(t *testing.T) {
	mailbox := NewBoundedMailbox(10)
	if mailbox.Size() != 0 {
		t.Errorf("Size() = %d, want 0", mailbox.Size())
	}
	mailbox.Send("msg1")
	if mailbox.Size() != 1 {
		t.Errorf("Size() = %d, want 1", mailbox.Size())
	}
	mailbox.Send("msg2")
	if mailbox.Size() != 2 {
		t.Errorf("Size() = %d, want 2", mailbox.Size())
	}
}
