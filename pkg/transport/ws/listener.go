package ws

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ockamio/ockam/pkg/node"
)

// Listener upgrades inbound HTTP connections on a path to WebSocket and
// starts a worker pair for each one, grounded on the teacher's
// WebSocketEventBusBridge.HandleWebSocket upgrade handler — restructured
// around node messages instead of the teacher's JSON RPC-style bridge.
type Listener struct {
	router   *Router
	parent   *node.Context
	cfg      Config
	upgrader websocket.Upgrader
	srv      *http.Server
	ln       net.Listener
}

// Listen binds addr and starts an HTTP server that upgrades every request
// to path into a WebSocket connection. Each accepted connection gets its
// own worker pair, registered with router under its remote address as the
// peer key.
func Listen(parent *node.Context, router *Router, addr string, path string, cfg Config) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		router: router,
		parent: parent,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: cfg.HandshakeTimeout,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		ln: ln,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, l.handleUpgrade)
	l.srv = &http.Server{Handler: mux}

	go func() {
		if err := l.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			parent.Node().Logger().Warnf("ws listener %s: serve error: %v", addr, err)
		}
	}()

	return l, nil
}

func (l *Listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.parent.Node().Logger().Warnf("ws listener: upgrade failed: %v", err)
		return
	}

	peer := conn.RemoteAddr().String()
	pair, err := StartWorkerPair(l.parent, conn, peer, l.cfg)
	if err != nil {
		l.parent.Node().Logger().Errorf("ws listener: failed to start worker pair for %s: %v", peer, err)
		_ = conn.Close()
		return
	}
	l.router.Accept(peer, pair)
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections. Already-established worker pairs
// keep running.
func (l *Listener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}
