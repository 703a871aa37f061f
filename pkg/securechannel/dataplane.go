package securechannel

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/vault"
	"github.com/ockamio/ockam/pkg/wire"
)

// encryptWorker is the public-address half of an endpoint: before Ready it
// runs the handshake off messages arriving at the public address; in
// Ready, the same address instead carries plaintext application traffic to
// seal and forward to the peer's decryption worker. It is a RawWorker, not
// a Worker[M], because one mailbox fields both shapes over the endpoint's
// lifetime.
type encryptWorker struct {
	ep *endpoint
}

func (w *encryptWorker) Initialize(ctx *node.Context) error { return nil }

func (w *encryptWorker) HandleRaw(ctx *node.Context, recipient addr.Address, local wire.LocalMessage) error {
	ep := w.ep
	if recipient.Equal(ep.encInternal) {
		// Reserved for future control traffic (e.g. a rekey tick); nothing
		// currently addresses this internal address.
		return nil
	}
	if ep.fsm.CurrentState() == StateReady {
		return ep.encryptOutbound(local)
	}
	return ep.handleHandshakeMessage(ctx, local)
}

func (w *encryptWorker) Shutdown(ctx *node.Context) error {
	w.ep.close(CodeClosed)
	return nil
}

// decryptWorker is the decryption-address half of an endpoint: it receives
// sealed data-plane frames from the peer's encryptWorker, rejects replays
// by strict nonce monotonicity, and on success stamps the verified peer
// identity onto the emerging LocalMessage before forwarding it to the
// application address the inner TransportMessage names.
type decryptWorker struct {
	ep *endpoint
}

func (w *decryptWorker) Initialize(ctx *node.Context) error { return nil }

func (w *decryptWorker) HandleRaw(ctx *node.Context, recipient addr.Address, local wire.LocalMessage) error {
	ep := w.ep
	if recipient.Equal(ep.decInternal) {
		return nil
	}
	if ep.fsm.CurrentState() != StateReady {
		// Data-plane traffic cannot arrive before Ready in practice (the
		// peer has nowhere to send it until it learns this address during
		// the handshake), but a misrouted message is dropped, not an error.
		return nil
	}

	var env cipherEnvelope
	if err := wire.DecodePayload(local.TransportMessage.Payload, &env); err != nil {
		return nil
	}

	ep.mu.Lock()
	replay := ep.haveSeenNonce && env.Nonce <= ep.lastSeenNonce
	ep.mu.Unlock()
	if replay {
		// A single replayed or out-of-order frame never closes the
		// channel or surfaces to application code — it is simply dropped.
		return nil
	}

	nb := nonceBytes(env.Nonce)
	plain, err := ep.v.AeadDecrypt(ep.decryptKey, env.Ciphertext, nb, nb[4:])
	if err != nil {
		return nil
	}

	tm, err := wire.DecodeTransportMessage(plain)
	if err != nil {
		return nil
	}

	ep.mu.Lock()
	ep.lastSeenNonce = env.Nonce
	ep.haveSeenNonce = true
	ep.mu.Unlock()

	stamped := wire.NewLocalMessage(tm).WithLocalInfo(wire.LocalInfo{
		TypeIdentifier: wire.IdentitySecureChannelIdentifier,
		Data:           ep.peerIdentifier,
	})
	return node.Forward(ctx, stamped)
}

func (w *decryptWorker) Shutdown(ctx *node.Context) error {
	w.ep.close(CodeClosed)
	return nil
}

// handleHandshakeMessage decodes a handshakeEnvelope and fires the
// corresponding event on the endpoint's state machine.
func (ep *endpoint) handleHandshakeMessage(_ *node.Context, local wire.LocalMessage) error {
	var env handshakeEnvelope
	if err := wire.DecodePayload(local.TransportMessage.Payload, &env); err != nil {
		ep.close(CodeHandshakeFailed)
		return fmt.Errorf("securechannel: handshake envelope decode failed: %w", err)
	}

	var event Event
	switch env.Kind {
	case msgExchange1:
		event = eventRecvExchange1
	case msgExchange2:
		event = eventRecvExchange2
	case msgIdentityProof:
		event = eventRecvIdentityProof
	case msgConfirm:
		event = eventRecvConfirm
	default:
		return fmt.Errorf("securechannel: unknown handshake message kind %d", env.Kind)
	}

	data := recvData{env: env, returnRoute: local.TransportMessage.ReturnRoute}
	if _, err := ep.fsm.Fire(context.Background(), event, data); err != nil {
		ep.close(CodeHandshakeFailed)
		return err
	}
	return nil
}

// encryptOutbound seals local's stepped TransportMessage under the next
// nonce and forwards the ciphertext to the peer's decryption address. A
// nonce at the end of its range closes the channel rather than reusing or
// overflowing it.
func (ep *endpoint) encryptOutbound(local wire.LocalMessage) error {
	ep.mu.Lock()
	if ep.sendNonce == math.MaxUint64 {
		ep.mu.Unlock()
		ep.close("NonceWraparound")
		return fmt.Errorf("securechannel: send nonce exhausted, channel closed")
	}
	nonce := ep.sendNonce
	ep.sendNonce++
	ep.mu.Unlock()

	stepped := local.TransportMessage.Step()
	inner, err := wire.EncodeTransportMessage(stepped)
	if err != nil {
		return err
	}

	nb := nonceBytes(nonce)
	ciphertext, err := ep.v.AeadEncrypt(ep.encryptKey, inner, nb, nb[4:])
	if err != nil {
		return err
	}

	return node.Send(ep.encCtx, ep.peerDecryptRoute, cipherEnvelope{Nonce: nonce, Ciphertext: ciphertext})
}

// nonceBytes renders a 64-bit counter as a ChaCha20-Poly1305 nonce: 4 zero
// bytes followed by the counter, big-endian. The counter bytes alone
// (nb[4:]) double as the associated data binding ciphertext to nonce.
func nonceBytes(n uint64) []byte {
	nb := make([]byte, vault.ChaCha20Poly1305NonceLength)
	binary.BigEndian.PutUint64(nb[4:], n)
	return nb
}
