package ws

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
)

// Router implements pkg/router.TransportRouter for transport type 2: it
// tracks one WorkerPair per peer and resolves a target address's Value (a
// dial URL, e.g. "ws://host:port/path") to that peer's sender address.
//
// Resolve never dials, matching pkg/transport/tcp.Router: a node must
// establish a connection explicitly via Dial or by accepting one through a
// Listener.
type Router struct {
	mu     sync.Mutex
	parent *node.Context
	cfg    Config
	byPeer map[string]*WorkerPair
}

// NewRouter creates an empty Router.
func NewRouter(parent *node.Context, cfg Config) *Router {
	return &Router{
		parent: parent,
		cfg:    cfg,
		byPeer: make(map[string]*WorkerPair),
	}
}

// Resolve satisfies router.TransportRouter.
func (r *Router) Resolve(target addr.Address) (addr.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pair, ok := r.byPeer[target.Value]
	if !ok {
		return addr.Address{}, fmt.Errorf("ws: no connection established to %s", target.Value)
	}
	return pair.TxAddr, nil
}

// Dial establishes a new outbound WebSocket connection to url and starts
// its worker pair, keyed by url for future Resolve calls.
func (r *Router) Dial(url string) (*WorkerPair, error) {
	dialer := websocket.Dialer{HandshakeTimeout: r.cfg.HandshakeTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", url, err)
	}
	pair, err := StartWorkerPair(r.parent, conn, url, r.cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	r.register(url, pair)
	return pair, nil
}

// Accept registers a WorkerPair already started for an inbound connection
// (used by a Listener after an upgrade), keyed by the remote peer string.
func (r *Router) Accept(peer string, pair *WorkerPair) {
	r.register(peer, pair)
}

func (r *Router) register(peer string, pair *WorkerPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPeer[peer] = pair
}

// Forget removes a peer's pair from the registry without tearing down its
// worker pair.
func (r *Router) Forget(peer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byPeer, peer)
}
