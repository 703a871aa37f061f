package tcp

import (
	"fmt"
	"net"
	"sync"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
)

// Router implements pkg/router.TransportRouter for transport type 1: it
// tracks one WorkerPair per peer and resolves a target address's Value
// (a "host:port" string) to that peer's sender address.
//
// Resolve never dials — a target with no existing pair is an error. A
// node must establish connections explicitly via Dial or by accepting
// them through a Listener; this implementation does not attempt
// connect-on-demand for addresses it has never seen.
type Router struct {
	mu     sync.Mutex
	parent *node.Context
	cfg    Config
	byPeer map[string]*WorkerPair
}

// NewRouter creates an empty Router. parent is used as the node-runtime
// anchor every dialed or accepted WorkerPair is started under.
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
		return addr.Address{}, fmt.Errorf("tcp: no connection established to %s", target.Value)
	}
	return pair.TxAddr, nil
}

// Dial establishes a new outbound connection to peer ("host:port") and
// starts its worker pair. Re-dialing an already-connected peer replaces
// the old pair after tearing it down.
func (r *Router) Dial(peer string) (*WorkerPair, error) {
	conn, err := net.DialTimeout("tcp", peer, r.cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("tcp: dial %s: %w", peer, err)
	}
	pair, err := StartWorkerPair(r.parent, conn, peer, r.cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	r.mu.Lock()
	old, had := r.byPeer[peer]
	r.mu.Unlock()
	if had {
		// Stopping the old sender closes its connection, which ends the old
		// receiver's read loop.
		_ = r.parent.StopWorker(old.TxAddr)
	}
	r.register(peer, pair)
	return pair, nil
}

// Accept registers a WorkerPair already started for an inbound connection
// (used by Listener after accepting a connection), keyed by the remote
// peer string.
func (r *Router) Accept(peer string, pair *WorkerPair) {
	r.register(peer, pair)
}

func (r *Router) register(peer string, pair *WorkerPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPeer[peer] = pair
}

// Forget removes a peer's pair from the registry without tearing down its
// worker pair — used when the pair has already torn itself down (e.g.
// after a ConnectionClosed control message) and the router just needs to
// stop resolving to it.
func (r *Router) Forget(peer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byPeer, peer)
}
