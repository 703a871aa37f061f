package node

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/wire"
)

type pingMsg struct {
	Text string `cbor:"0,keyasint"`
}

type echoWorker struct {
	handled int32
}

func (w *echoWorker) Initialize(*Context) error { return nil }

func (w *echoWorker) HandleMessage(ctx *Context, msg *Routed[pingMsg]) error {
	atomic.AddInt32(&w.handled, 1)
	return SendFromAddress(ctx, msg.ReturnRoute(), msg.Msg(), ctx.Address())
}

func (w *echoWorker) Shutdown(*Context) error { return nil }

func TestSendReceiveLocalEcho(t *testing.T) {
	n := NewNode(nil)
	client, err := n.NewContext(addr.RandomLocal())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	echoAddr := addr.RandomLocal()
	w := &echoWorker{}
	if _, err := StartWorker[pingMsg](client, addr.NewSet(echoAddr), w, "app", nil); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}

	if err := Send(client, addr.NewRoute(echoAddr), pingMsg{Text: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	cancel, err := ReceiveTimeout[pingMsg](client, time.Second)
	if err != nil {
		t.Fatalf("ReceiveTimeout: %v", err)
	}
	routed := cancel.Msg()
	if routed.Msg().Text != "hello" {
		t.Fatalf("echoed Text = %q, want %q", routed.Msg().Text, "hello")
	}
	if atomic.LoadInt32(&w.handled) != 1 {
		t.Fatalf("expected echo worker to have handled exactly one message")
	}
}

func TestStartWorkerRejectsDuplicateAddress(t *testing.T) {
	n := NewNode(nil)
	client, err := n.NewContext(addr.RandomLocal())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	shared := addr.RandomLocal()
	if _, err := StartWorker[pingMsg](client, addr.NewSet(shared), &echoWorker{}, "app", nil); err != nil {
		t.Fatalf("first StartWorker: %v", err)
	}
	if _, err := StartWorker[pingMsg](client, addr.NewSet(shared), &echoWorker{}, "app", nil); err == nil {
		t.Fatalf("expected second StartWorker on the same address to fail")
	}
}

func TestAccessControlRejectsMessage(t *testing.T) {
	n := NewNode(nil)
	client, err := n.NewContext(addr.RandomLocal())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	denyAll := FuncAccessControl(func(wire.LocalMessage) bool { return false })
	w := &echoWorker{}
	workerAddr := addr.RandomLocal()
	if _, err := StartWorker[pingMsg](client, addr.NewSet(workerAddr), w, "app", denyAll); err != nil {
		t.Fatalf("StartWorker: %v", err)
	}

	if err := Send(client, addr.NewRoute(workerAddr), pingMsg{Text: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, err := ReceiveTimeout[pingMsg](client, 100*time.Millisecond); err == nil {
		t.Fatalf("expected no reply since access control denies everything")
	}
	if atomic.LoadInt32(&w.handled) != 0 {
		t.Fatalf("expected HandleMessage to never run under a deny-all AccessControl")
	}
}

func TestCancelDiscardRequeues(t *testing.T) {
	n := NewNode(nil)
	client, err := n.NewContext(addr.RandomLocal())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	if err := Send(client, addr.NewRoute(client.Address()), pingMsg{Text: "again"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	first, err := ReceiveTimeout[pingMsg](client, time.Second)
	if err != nil {
		t.Fatalf("first ReceiveTimeout: %v", err)
	}
	first.Discard()

	second, err := ReceiveTimeout[pingMsg](client, time.Second)
	if err != nil {
		t.Fatalf("second ReceiveTimeout after Discard: %v", err)
	}
	if second.Msg().Msg().Text != "again" {
		t.Fatalf("requeued message Text = %q, want %q", second.Msg().Msg().Text, "again")
	}
}

func TestReceiveMatchSkipsNonMatching(t *testing.T) {
	n := NewNode(nil)
	client, err := n.NewContext(addr.RandomLocal())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	if err := Send(client, addr.NewRoute(client.Address()), pingMsg{Text: "skip-me"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := Send(client, addr.NewRoute(client.Address()), pingMsg{Text: "match-me"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	cancel, err := ReceiveMatch[pingMsg](client, time.Second, func(m pingMsg) bool {
		return m.Text == "match-me"
	})
	if err != nil {
		t.Fatalf("ReceiveMatch: %v", err)
	}
	if cancel.Msg().Msg().Text != "match-me" {
		t.Fatalf("ReceiveMatch returned Text = %q, want %q", cancel.Msg().Msg().Text, "match-me")
	}

	// The skipped message was requeued; it should still be receivable.
	remaining, err := ReceiveTimeout[pingMsg](client, time.Second)
	if err != nil {
		t.Fatalf("ReceiveTimeout for requeued message: %v", err)
	}
	if remaining.Msg().Msg().Text != "skip-me" {
		t.Fatalf("requeued message Text = %q, want %q", remaining.Msg().Msg().Text, "skip-me")
	}
}

func TestForwardDeliversUnchanged(t *testing.T) {
	n := NewNode(nil)
	a, err := n.NewContext(addr.RandomLocal())
	if err != nil {
		t.Fatalf("NewContext a: %v", err)
	}
	b, err := n.NewContext(addr.RandomLocal())
	if err != nil {
		t.Fatalf("NewContext b: %v", err)
	}

	payload, err := wire.EncodePayload(pingMsg{Text: "relayed"})
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	tm := wire.NewTransportMessage(addr.NewRoute(b.Address()), addr.NewRoute(a.Address()), payload)
	local := wire.NewLocalMessage(tm)

	if err := Forward(a, local); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	cancel, err := ReceiveTimeout[pingMsg](b, time.Second)
	if err != nil {
		t.Fatalf("ReceiveTimeout: %v", err)
	}
	if cancel.Msg().Msg().Text != "relayed" {
		t.Fatalf("forwarded Text = %q, want %q", cancel.Msg().Msg().Text, "relayed")
	}
	if cancel.Msg().ReturnRoute().String() != a.Address().String() {
		t.Fatalf("ReturnRoute = %v, want unchanged %v", cancel.Msg().ReturnRoute(), a.Address())
	}
}
