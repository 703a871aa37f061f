package securechannel

import (
	"context"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/vault"
)

// SecureChannel is a handle to one endpoint of a secure channel: the
// public address application workers send plaintext to, and the
// decryption address the peer's encryption worker forwards ciphertext to.
type SecureChannel struct {
	ep *endpoint

	PublicAddr  addr.Address
	DecryptAddr addr.Address
}

// Role reports whether this endpoint initiated or accepted the handshake.
func (sc *SecureChannel) Role() Role { return sc.ep.role }

// State returns the endpoint's current handshake/data-plane state.
func (sc *SecureChannel) State() State { return sc.ep.fsm.CurrentState() }

// PeerIdentifier returns the verified peer identity once Ready, or nil
// before then.
func (sc *SecureChannel) PeerIdentifier() []byte {
	sc.ep.mu.Lock()
	defer sc.ep.mu.Unlock()
	return append([]byte(nil), sc.ep.peerIdentifier...)
}

// WaitReady blocks until the handshake completes, the endpoint closes
// first, or ctx is done.
func (sc *SecureChannel) WaitReady(ctx context.Context) error {
	select {
	case <-sc.ep.readyCh:
		return nil
	case <-sc.ep.closedCh:
		return &Error{Code: CodeClosed, Message: "securechannel: closed before becoming ready: " + sc.ep.closeReason}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Closed returns a channel closed once this endpoint has torn down.
func (sc *SecureChannel) Closed() <-chan struct{} { return sc.ep.closedCh }

// Close tears down both workers of this endpoint.
func (sc *SecureChannel) Close() error {
	sc.ep.close(CodeClosed)
	return nil
}

func withDefaults(cfg Config) Config {
	if cfg.Cluster == "" {
		cfg.Cluster = DefaultConfig().Cluster
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = DefaultConfig().HandshakeTimeout
	}
	return cfg
}

// StartInitiator starts a new endpoint and sends Exchange1 to the peer
// reachable at peerListenerRoute, where a Listener is expected to be
// waiting.
func StartInitiator(parent *node.Context, peerListenerRoute addr.Route, identity *LocalIdentity, v vault.Vault, cfg Config) (*SecureChannel, error) {
	cfg = withDefaults(cfg)

	publicAddr := addr.RandomLocal()
	encInternal := addr.RandomLocal()
	decryptAddr := addr.RandomLocal()
	decInternal := addr.RandomLocal()

	ep := newEndpoint(RoleInitiator, v, identity, publicAddr, encInternal, decryptAddr, decInternal, cfg)

	if err := startEndpointWorkers(parent, ep); err != nil {
		return nil, err
	}
	ep.scheduleHandshakeTimeout()

	if _, err := ep.fsm.Fire(context.Background(), eventStart, startData{peerListenerRoute: peerListenerRoute}); err != nil {
		ep.close(CodeHandshakeFailed)
		return nil, err
	}

	return &SecureChannel{ep: ep, PublicAddr: publicAddr, DecryptAddr: decryptAddr}, nil
}

// startResponder starts a new endpoint already in AwaitKeyExchange1 and
// immediately feeds it the Exchange1 message that caused a Listener to
// spawn it.
func startResponder(parent *node.Context, identity *LocalIdentity, v vault.Vault, cfg Config, env handshakeEnvelope, returnRoute addr.Route) (*SecureChannel, error) {
	cfg = withDefaults(cfg)

	publicAddr := addr.RandomLocal()
	encInternal := addr.RandomLocal()
	decryptAddr := addr.RandomLocal()
	decInternal := addr.RandomLocal()

	ep := newEndpoint(RoleResponder, v, identity, publicAddr, encInternal, decryptAddr, decInternal, cfg)

	if err := startEndpointWorkers(parent, ep); err != nil {
		return nil, err
	}
	ep.scheduleHandshakeTimeout()

	data := recvData{env: env, returnRoute: returnRoute}
	if _, err := ep.fsm.Fire(context.Background(), eventRecvExchange1, data); err != nil {
		ep.close(CodeHandshakeFailed)
		return nil, err
	}

	return &SecureChannel{ep: ep, PublicAddr: publicAddr, DecryptAddr: decryptAddr}, nil
}

func startEndpointWorkers(parent *node.Context, ep *endpoint) error {
	encCtx, err := node.StartRawWorker(parent, addr.NewSet(ep.publicAddr, ep.encInternal), &encryptWorker{ep: ep}, ep.cfg.Cluster, nil)
	if err != nil {
		return err
	}
	decCtx, err := node.StartRawWorker(parent, addr.NewSet(ep.decryptAddr, ep.decInternal), &decryptWorker{ep: ep}, ep.cfg.Cluster, nil)
	if err != nil {
		_ = encCtx.StopWorker(ep.publicAddr)
		return err
	}
	ep.encCtx = encCtx
	ep.decCtx = decCtx
	return nil
}
