package securechannel

import (
	"sync"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/vault"
)

// Listener accepts handshake initiations at a well-known address and spawns
// a fresh responder endpoint for each one.
type Listener struct {
	ctx      *node.Context
	parent   *node.Context
	identity *LocalIdentity
	v        vault.Vault
	cfg      Config

	mu       sync.Mutex
	channels []*SecureChannel
}

// Listen registers a Listener at listenAddr.
func Listen(parent *node.Context, listenAddr addr.Address, identity *LocalIdentity, v vault.Vault, cfg Config) (*Listener, error) {
	l := &Listener{parent: parent, identity: identity, v: v, cfg: withDefaults(cfg)}
	ctx, err := node.StartWorker(parent, addr.NewSet(listenAddr), l, l.cfg.Cluster, nil)
	if err != nil {
		return nil, err
	}
	l.ctx = ctx
	return l, nil
}

// Address returns the address initiators send Exchange1 to.
func (l *Listener) Address() addr.Address { return l.ctx.Address() }

// Channels returns every responder endpoint spawned so far.
func (l *Listener) Channels() []*SecureChannel {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*SecureChannel, len(l.channels))
	copy(out, l.channels)
	return out
}

func (l *Listener) Initialize(ctx *node.Context) error { return nil }
func (l *Listener) Shutdown(ctx *node.Context) error   { return nil }

func (l *Listener) HandleMessage(ctx *node.Context, msg *node.Routed[handshakeEnvelope]) error {
	env := msg.Msg()
	if env.Kind != msgExchange1 {
		// Anything else arriving at the listener address is a stray
		// message from a peer that has the wrong address; ignore it.
		return nil
	}

	sc, err := startResponder(l.parent, l.identity, l.v, l.cfg, env, msg.ReturnRoute())
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.channels = append(l.channels, sc)
	l.mu.Unlock()

	if l.cfg.OnChannel != nil {
		l.cfg.OnChannel(sc)
	}
	return nil
}
