package router

import (
	"context"
	"testing"
	"time"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/concurrency"
)

func newTestEntry() (addr.Address, concurrency.Mailbox, chan struct{}) {
	a := addr.RandomLocal()
	mb := concurrency.NewBoundedMailbox(4)
	done := make(chan struct{})
	return a, mb, done
}

func TestStartWorkerThenResolve(t *testing.T) {
	r := New(nil)
	a, mb, done := newTestEntry()
	defer close(done)

	if err := r.StartWorker(addr.NewSet(a), mb, done, "app", false); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}

	got, needsWrapping, err := r.Resolve(a)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if needsWrapping {
		t.Fatalf("expected local resolve to not need wrapping")
	}
	if got != mb {
		t.Fatalf("Resolve returned a different mailbox")
	}
}

func TestStartWorkerRejectsDuplicateAddress(t *testing.T) {
	r := New(nil)
	a, mb1, done1 := newTestEntry()
	defer close(done1)
	if err := r.StartWorker(addr.NewSet(a), mb1, done1, "app", false); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}

	mb2 := concurrency.NewBoundedMailbox(4)
	done2 := make(chan struct{})
	defer close(done2)
	err := r.StartWorker(addr.NewSet(a), mb2, done2, "app", false)
	rerr, ok := err.(*Error)
	if !ok || rerr.Code != CodeAddressInUse {
		t.Fatalf("StartWorker duplicate = %v, want AddressInUse", err)
	}
}

func TestStartWorkerAtomicOnSet(t *testing.T) {
	r := New(nil)
	existing, mb1, done1 := newTestEntry()
	defer close(done1)
	if err := r.StartWorker(addr.NewSet(existing), mb1, done1, "app", false); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}

	fresh := addr.RandomLocal()
	mb2 := concurrency.NewBoundedMailbox(4)
	done2 := make(chan struct{})
	defer close(done2)
	err := r.StartWorker(addr.NewSet(fresh, existing), mb2, done2, "app", false)
	if err == nil {
		t.Fatalf("expected conflicting multi-address StartWorker to fail")
	}
	if _, resolveErr := r.Resolve(fresh); resolveErr == nil {
		t.Fatalf("partial registration leaked: %v should not have been registered", fresh)
	}
}

func TestResolveMissingAddress(t *testing.T) {
	r := New(nil)
	_, _, err := r.Resolve(addr.NewLocal("nowhere"))
	rerr, ok := err.(*Error)
	if !ok || rerr.Code != CodeNoRouteToAddress {
		t.Fatalf("Resolve missing = %v, want NoRouteToAddress", err)
	}
}

func TestResolveTransportAddress(t *testing.T) {
	r := New(nil)
	senderAddr, senderMb, senderDone := newTestEntry()
	defer close(senderDone)
	if err := r.StartWorker(addr.NewSet(senderAddr), senderMb, senderDone, "_internals.tcp", false); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}

	target := addr.New(1, "127.0.0.1:9000")
	if err := r.RegisterTransportRouter(1, stubTransportRouter{local: senderAddr}); err != nil {
		t.Fatalf("RegisterTransportRouter: %v", err)
	}

	mb, needsWrapping, err := r.Resolve(target)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !needsWrapping {
		t.Fatalf("expected transport resolve to require wrapping")
	}
	if mb != senderMb {
		t.Fatalf("Resolve returned wrong mailbox for transport address")
	}
}

type stubTransportRouter struct {
	local addr.Address
}

func (s stubTransportRouter) Resolve(addr.Address) (addr.Address, error) {
	return s.local, nil
}

func TestRegisterTransportRouterRejectsSecondRegistration(t *testing.T) {
	r := New(nil)
	senderAddr, senderMb, senderDone := newTestEntry()
	defer close(senderDone)
	if err := r.StartWorker(addr.NewSet(senderAddr), senderMb, senderDone, "_internals.tcp", false); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}

	if err := r.RegisterTransportRouter(1, stubTransportRouter{local: senderAddr}); err != nil {
		t.Fatalf("first RegisterTransportRouter: %v", err)
	}

	err := r.RegisterTransportRouter(1, stubTransportRouter{local: senderAddr})
	rerr, ok := err.(*Error)
	if !ok || rerr.Code != CodeTransportAlreadyBound {
		t.Fatalf("second RegisterTransportRouter = %v, want TransportAlreadyBound", err)
	}
}

func TestStopRemovesAllAliases(t *testing.T) {
	r := New(nil)
	primary := addr.RandomLocal()
	alias := addr.RandomLocal()
	mb := concurrency.NewBoundedMailbox(4)
	done := make(chan struct{})
	close(done)

	if err := r.StartWorker(addr.NewSet(primary, alias), mb, done, "app", false); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}
	if err := r.Stop(primary); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, _, err := r.Resolve(primary); err == nil {
		t.Fatalf("expected primary to be gone after Stop")
	}
	if _, _, err := r.Resolve(alias); err == nil {
		t.Fatalf("expected alias to be gone after Stop")
	}
	if !mb.IsClosed() {
		t.Fatalf("expected mailbox to be closed after Stop")
	}
}

func TestListWorkersDedupesAliases(t *testing.T) {
	r := New(nil)
	primary := addr.RandomLocal()
	alias := addr.RandomLocal()
	mb := concurrency.NewBoundedMailbox(4)
	done := make(chan struct{})
	defer close(done)

	if err := r.StartWorker(addr.NewSet(primary, alias), mb, done, "app", false); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}
	workers := r.ListWorkers()
	if len(workers) != 1 {
		t.Fatalf("ListWorkers() = %v, want exactly one entry", workers)
	}
}

func TestSetReadyAndWaitFor(t *testing.T) {
	r := New(nil)
	a, mb, done := newTestEntry()
	defer close(done)
	if err := r.StartWorker(addr.NewSet(a), mb, done, "app", false); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}

	ready, _ := r.GetReady(a)
	if ready {
		t.Fatalf("expected entry to not be ready yet")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		if err := r.SetReady(a); err != nil {
			t.Errorf("SetReady: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.WaitFor(ctx, a); err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	ready, _ = r.GetReady(a)
	if !ready {
		t.Fatalf("expected entry to be ready after WaitFor returns")
	}
}

func TestWaitForRespectsContextDeadline(t *testing.T) {
	r := New(nil)
	a, mb, done := newTestEntry()
	defer close(done)
	r.StartWorker(addr.NewSet(a), mb, done, "app", false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.WaitFor(ctx, a); err == nil {
		t.Fatalf("expected WaitFor to time out")
	}
}

func TestStopNodeGraceful(t *testing.T) {
	r := New(nil)
	mailboxes := make([]concurrency.Mailbox, 0, 3)
	for _, cluster := range []string{"first", "second", "_internals.core"} {
		a := addr.RandomLocal()
		mb := concurrency.NewBoundedMailbox(1)
		mailboxes = append(mailboxes, mb)
		if err := r.StartWorker(addr.NewSet(a), mb, closedChan(), cluster, false); err != nil {
			t.Fatalf("StartWorker: %v", err)
		}
	}

	if err := r.StopNode(Graceful, 200*time.Millisecond); err != nil {
		t.Fatalf("StopNode: %v", err)
	}
	for _, mb := range mailboxes {
		if !mb.IsClosed() {
			t.Fatalf("expected mailbox to be closed after Graceful StopNode")
		}
	}
}

func TestStopNodeImmediateClosesAllMailboxes(t *testing.T) {
	r := New(nil)
	mailboxes := make([]concurrency.Mailbox, 0, 3)
	for _, cluster := range []string{"first", "second"} {
		a := addr.RandomLocal()
		mb := concurrency.NewBoundedMailbox(1)
		mailboxes = append(mailboxes, mb)
		if err := r.StartWorker(addr.NewSet(a), mb, closedChan(), cluster, false); err != nil {
			t.Fatalf("StartWorker: %v", err)
		}
	}

	if err := r.StopNode(Immediate, 0); err != nil {
		t.Fatalf("StopNode: %v", err)
	}
	for _, mb := range mailboxes {
		if !mb.IsClosed() {
			t.Fatalf("expected mailbox to be closed after Immediate StopNode")
		}
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
