package securechannel

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/fsm"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/vault"
)

// endpoint holds the full state of one side of a secure channel. Both the
// encryption and decryption workers of one endpoint share the same
// *endpoint, guarded by mu — they are two cooperating halves of one
// logical channel, not independent peers, so closing either stops both.
type endpoint struct {
	mu sync.Mutex

	role     Role
	v        vault.Vault
	identity *LocalIdentity
	cfg      Config

	fsm *fsm.StateMachine

	publicAddr  addr.Address
	encInternal addr.Address
	decryptAddr addr.Address
	decInternal addr.Address

	encCtx *node.Context
	decCtx *node.Context

	ephemeralSecret     vault.Secret
	ephemeralPublic     vault.PublicKey
	peerEphemeralPublic vault.PublicKey
	channelBinding      []byte

	sharedSecret vault.Secret
	encryptKey   vault.Secret
	decryptKey   vault.Secret

	peerIdentifier   []byte
	peerDecryptRoute addr.Route

	sendNonce     uint64
	lastSeenNonce uint64
	haveSeenNonce bool

	handshakeTimer *time.Timer
	closeOnce      sync.Once
	closeReason    string
	readyOnce      sync.Once
	readyCh        chan struct{}
	closedCh       chan struct{}
}

// startData carries the Fire argument for eventStart: the route to the
// peer's listener address, known only by the initiator.
type startData struct {
	peerListenerRoute addr.Route
}

// recvData carries the Fire argument for every RecvXxx event: the decoded
// envelope and the return route it arrived with.
type recvData struct {
	env         handshakeEnvelope
	returnRoute addr.Route
}

func newEndpoint(role Role, v vault.Vault, identity *LocalIdentity, publicAddr, encInternal, decryptAddr, decInternal addr.Address, cfg Config) *endpoint {
	ep := &endpoint{
		role:        role,
		v:           v,
		identity:    identity,
		cfg:         cfg,
		publicAddr:  publicAddr,
		encInternal: encInternal,
		decryptAddr: decryptAddr,
		decInternal: decInternal,
		readyCh:     make(chan struct{}),
		closedCh:    make(chan struct{}),
	}

	initial := StateIdle
	if role == RoleResponder {
		initial = StateAwaitKeyExchange1
	}
	ep.fsm = fsm.New(publicAddr.String(), initial)
	ep.configureFSM()
	return ep
}

func (ep *endpoint) configureFSM() {
	sm := ep.fsm

	sm.Configure(StateIdle).
		PermitWithAction(eventStart, StateAwaitKeyExchange2, ep.actionSendExchange1).
		Permit(eventClose, StateClosed)

	sm.Configure(StateAwaitKeyExchange1).
		PermitWithAction(eventRecvExchange1, StateAwaitIdentityProof, ep.actionHandleExchange1).
		Permit(eventClose, StateClosed)

	sm.Configure(StateAwaitKeyExchange2).
		PermitWithAction(eventRecvExchange2, StateAwaitIdentityProof, ep.actionHandleExchange2).
		Permit(eventClose, StateClosed)

	sm.Configure(StateAwaitIdentityProof).
		PermitWithAction(eventRecvIdentityProof, StateReady, ep.actionHandleIdentityProof).
		Ignore(eventRecvConfirm).
		Permit(eventClose, StateClosed)

	sm.Configure(StateReady).
		Ignore(eventRecvConfirm).
		Permit(eventClose, StateClosed)

	sm.Configure(StateClosed)
}

// scheduleHandshakeTimeout arms the close-on-timeout timer. Called once the
// endpoint's workers are started and ep.encCtx is set.
func (ep *endpoint) scheduleHandshakeTimeout() {
	if ep.cfg.HandshakeTimeout <= 0 {
		return
	}
	ep.mu.Lock()
	ep.handshakeTimer = time.AfterFunc(ep.cfg.HandshakeTimeout, func() {
		select {
		case <-ep.readyCh:
			return
		default:
		}
		ep.close(CodeHandshakeTimeout)
	})
	ep.mu.Unlock()
}

func (ep *endpoint) markReady() {
	ep.mu.Lock()
	if ep.handshakeTimer != nil {
		ep.handshakeTimer.Stop()
	}
	ep.mu.Unlock()
	ep.readyOnce.Do(func() { close(ep.readyCh) })
}

// close idempotently tears down both of this endpoint's workers and
// records reason. Triggered by a handshake timeout, a handshake failure, a
// data-plane nonce wraparound, or an explicit application Close call — in
// every case, closing either half releases both, since they share this
// *endpoint and are deregistered together here.
func (ep *endpoint) close(reason string) {
	ep.closeOnce.Do(func() {
		ep.mu.Lock()
		ep.closeReason = reason
		if ep.handshakeTimer != nil {
			ep.handshakeTimer.Stop()
		}
		ep.mu.Unlock()

		if ep.encCtx != nil {
			_ = ep.encCtx.StopWorker(ep.publicAddr)
		}
		if ep.decCtx != nil {
			_ = ep.decCtx.StopWorker(ep.decryptAddr)
		}
		close(ep.closedCh)
		_, _ = ep.fsm.Fire(context.Background(), eventClose, reason)
	})
}

func channelBindingHash(initiatorEphemeralPub, responderEphemeralPub []byte) []byte {
	h := sha256.New()
	h.Write(initiatorEphemeralPub)
	h.Write(responderEphemeralPub)
	return h.Sum(nil)
}

func zeroNonce() []byte {
	return make([]byte, vault.ChaCha20Poly1305NonceLength)
}

// routeToPeerDecrypt rebuilds a route to the peer's decryption worker from
// the return route a handshake message arrived with. The return route's
// last hop is the peer's public (handshake) address — stamped there by
// SendFromAddress — so it is dropped and replaced with the peer's
// decryption address, leaving the transport hops that lead back to the
// peer's node untouched.
func routeToPeerDecrypt(returnRoute addr.Route, peerDecryptAddr addr.Address) addr.Route {
	prefix := returnRoute.Clone()
	if len(prefix) > 0 {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix.Append(peerDecryptAddr)
}
