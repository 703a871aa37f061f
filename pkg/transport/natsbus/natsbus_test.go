package natsbus_test

import (
	"testing"
	"time"

	natssrv "github.com/nats-io/nats-server/v2/server"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/transport/natsbus"
)

type pingMsg struct {
	Text string `cbor:"0,keyasint"`
}

func runTestNATSServer(t *testing.T) *natssrv.Server {
	t.Helper()

	opts := &natssrv.Options{Port: -1}
	s, err := natssrv.NewServer(opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go s.Start()
	if !s.ReadyForConnections(5 * time.Second) {
		s.Shutdown()
		t.Fatalf("nats server not ready")
	}
	t.Cleanup(func() {
		s.Shutdown()
	})
	return s
}

func newTestNode(t *testing.T) (*node.Node, *node.Context) {
	t.Helper()
	n := node.NewNode(nil)
	ctx, err := n.NewContext(addr.RandomLocal())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return n, ctx
}

func TestRoundTripDeliversMessage(t *testing.T) {
	srv := runTestNATSServer(t)
	url := srv.ClientURL()

	_, serverCtx := newTestNode(t)
	serverCfg := natsbus.DefaultConfig()
	serverCfg.URL = url
	serverCfg.Prefix = "ockam.test"
	serverCfg.NodeID = "server-node"
	serverRouter, err := natsbus.NewRouter(serverCtx, serverCfg)
	if err != nil {
		t.Fatalf("NewRouter(server): %v", err)
	}
	defer serverRouter.Close()

	_, clientCtx := newTestNode(t)
	clientCfg := serverCfg
	clientCfg.NodeID = "client-node"
	clientRouter, err := natsbus.NewRouter(clientCtx, clientCfg)
	if err != nil {
		t.Fatalf("NewRouter(client): %v", err)
	}
	defer clientRouter.Close()
	if err := clientCtx.Register(natsbus.TransportType, clientRouter); err != nil {
		t.Fatalf("Register: %v", err)
	}

	onward := addr.NewRoute(addr.New(natsbus.TransportType, "server-node"), serverCtx.Address())
	if err := node.Send(clientCtx, onward, pingMsg{Text: "over-the-bus"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	cancel, err := node.ReceiveTimeout[pingMsg](serverCtx, 2*time.Second)
	if err != nil {
		t.Fatalf("ReceiveTimeout: %v", err)
	}
	if got := cancel.Msg().Msg().Text; got != "over-the-bus" {
		t.Fatalf("received Text = %q, want %q", got, "over-the-bus")
	}
}
