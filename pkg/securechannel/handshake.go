package securechannel

import (
	"context"
	"fmt"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/fsm"
	"github.com/ockamio/ockam/pkg/node"
	"github.com/ockamio/ockam/pkg/vault"
)

// actionSendExchange1 generates this endpoint's ephemeral key pair and
// sends Exchange1 to the peer's listener. Only ever fired for an
// initiator, from Idle.
func (ep *endpoint) actionSendExchange1(_ context.Context, t fsm.TransitionContext) error {
	data, ok := t.Data.(startData)
	if !ok {
		return fmt.Errorf("securechannel: Start fired without a peer route")
	}

	secret, err := ep.v.SecretGenerate(vault.SecretAttributes{Type: vault.SecretTypeX25519, Length: vault.Curve25519SecretLength})
	if err != nil {
		return err
	}
	pub, err := ep.v.SecretPublicKey(secret)
	if err != nil {
		return err
	}
	ep.ephemeralSecret = secret
	ep.ephemeralPublic = pub

	env := handshakeEnvelope{
		Kind:               msgExchange1,
		EphemeralPublicKey: pub.Bytes(),
		DecryptAddrValue:   ep.decryptAddr.Value,
	}
	return node.Send(ep.encCtx, data.peerListenerRoute, env)
}

// actionHandleExchange1 runs on a freshly-spawned responder endpoint: it
// generates its own ephemeral key pair, derives the shared secret and the
// Exchange2 authentication payload, and replies.
func (ep *endpoint) actionHandleExchange1(_ context.Context, t fsm.TransitionContext) error {
	data, ok := t.Data.(recvData)
	if !ok {
		return fmt.Errorf("securechannel: RecvExchange1 fired without envelope data")
	}
	env := data.env
	if len(env.EphemeralPublicKey) != vault.Curve25519PublicLength {
		return fmt.Errorf("securechannel: exchange1 ephemeral key has length %d, want %d", len(env.EphemeralPublicKey), vault.Curve25519PublicLength)
	}
	peerEphPub := vault.NewPublicKey(env.EphemeralPublicKey, vault.SecretTypeX25519)

	secret, err := ep.v.SecretGenerate(vault.SecretAttributes{Type: vault.SecretTypeX25519, Length: vault.Curve25519SecretLength})
	if err != nil {
		return err
	}
	myPub, err := ep.v.SecretPublicKey(secret)
	if err != nil {
		return err
	}

	shared, err := ep.v.KeyAgreement(secret, peerEphPub)
	if err != nil {
		return err
	}

	// Channel binding is always ordered initiator-ephemeral first,
	// responder-ephemeral second, regardless of which side computes it.
	cb := channelBindingHash(env.EphemeralPublicKey, myPub.Bytes())

	confirmKeys, err := ep.v.Hkdf(vault.Secret{}, shared, handshakeKeyInfo, 1, vault.ChaCha20Poly1305KeyLength)
	if err != nil {
		return err
	}
	auth, err := ep.v.AeadEncrypt(confirmKeys[0], nil, zeroNonce(), cb)
	if err != nil {
		return err
	}

	ep.ephemeralSecret = secret
	ep.ephemeralPublic = myPub
	ep.peerEphemeralPublic = peerEphPub
	ep.channelBinding = cb
	ep.sharedSecret = shared
	ep.peerDecryptRoute = routeToPeerDecrypt(data.returnRoute, addr.NewLocal(env.DecryptAddrValue))

	reply := handshakeEnvelope{
		Kind:               msgExchange2,
		EphemeralPublicKey: myPub.Bytes(),
		Auth:               auth,
		DecryptAddrValue:   ep.decryptAddr.Value,
	}
	return node.Send(ep.encCtx, data.returnRoute, reply)
}

// actionHandleExchange2 runs on the initiator: it derives the shared
// secret, verifies the responder's authentication payload, then sends its
// own identity proof over the channel binding.
func (ep *endpoint) actionHandleExchange2(_ context.Context, t fsm.TransitionContext) error {
	data, ok := t.Data.(recvData)
	if !ok {
		return fmt.Errorf("securechannel: RecvExchange2 fired without envelope data")
	}
	env := data.env
	if len(env.EphemeralPublicKey) != vault.Curve25519PublicLength {
		return fmt.Errorf("securechannel: exchange2 ephemeral key has length %d, want %d", len(env.EphemeralPublicKey), vault.Curve25519PublicLength)
	}
	peerEphPub := vault.NewPublicKey(env.EphemeralPublicKey, vault.SecretTypeX25519)

	shared, err := ep.v.KeyAgreement(ep.ephemeralSecret, peerEphPub)
	if err != nil {
		return err
	}

	cb := channelBindingHash(ep.ephemeralPublic.Bytes(), env.EphemeralPublicKey)

	confirmKeys, err := ep.v.Hkdf(vault.Secret{}, shared, handshakeKeyInfo, 1, vault.ChaCha20Poly1305KeyLength)
	if err != nil {
		return err
	}
	if _, err := ep.v.AeadDecrypt(confirmKeys[0], env.Auth, zeroNonce(), cb); err != nil {
		return fmt.Errorf("securechannel: exchange2 authentication failed: %w", err)
	}

	ep.peerEphemeralPublic = peerEphPub
	ep.channelBinding = cb
	ep.sharedSecret = shared
	ep.peerDecryptRoute = routeToPeerDecrypt(data.returnRoute, addr.NewLocal(env.DecryptAddrValue))

	pub, err := ep.identity.PublicKey()
	if err != nil {
		return err
	}
	sig, err := ep.identity.Sign(cb)
	if err != nil {
		return err
	}

	proof := handshakeEnvelope{
		Kind:             msgIdentityProof,
		ContactPublicKey: pub.Bytes(),
		Identifier:       ep.identity.Identifier(),
		Signature:        sig,
		DecryptAddrValue: ep.decryptAddr.Value,
	}
	return node.Send(ep.encCtx, data.returnRoute, proof)
}

// actionHandleIdentityProof verifies the peer's identity proof, derives the
// data-plane keys, and — on the responder only, which has not sent its own
// proof yet — replies with its own. Both sides then send Confirm and
// transition to Ready.
func (ep *endpoint) actionHandleIdentityProof(_ context.Context, t fsm.TransitionContext) error {
	data, ok := t.Data.(recvData)
	if !ok {
		return fmt.Errorf("securechannel: RecvIdentityProof fired without envelope data")
	}
	env := data.env

	contact, ok := VerifyContact(env.Identifier, env.ContactPublicKey)
	if !ok {
		return fmt.Errorf("securechannel: identity proof identifier does not match contact public key")
	}
	verified, err := ep.v.Verify(vault.Signature(env.Signature), contact.PublicKey, ep.channelBinding)
	if err != nil {
		return err
	}
	if !verified {
		return fmt.Errorf("securechannel: identity proof signature did not verify")
	}
	ep.peerIdentifier = contact.Identifier

	outs, err := ep.v.Hkdf(vault.Secret{}, ep.sharedSecret, dataPlaneKeyInfo, 2, vault.ChaCha20Poly1305KeyLength)
	if err != nil {
		return err
	}
	if ep.role == RoleInitiator {
		ep.encryptKey, ep.decryptKey = outs[0], outs[1]
	} else {
		ep.encryptKey, ep.decryptKey = outs[1], outs[0]
	}

	if ep.role == RoleResponder {
		pub, err := ep.identity.PublicKey()
		if err != nil {
			return err
		}
		sig, err := ep.identity.Sign(ep.channelBinding)
		if err != nil {
			return err
		}
		proof := handshakeEnvelope{
			Kind:             msgIdentityProof,
			ContactPublicKey: pub.Bytes(),
			Identifier:       ep.identity.Identifier(),
			Signature:        sig,
			DecryptAddrValue: ep.decryptAddr.Value,
		}
		if err := node.Send(ep.encCtx, data.returnRoute, proof); err != nil {
			return err
		}
	}

	// Confirm is informational: each side transitions to Ready on its own
	// once it has verified the peer, rather than waiting to receive this.
	_ = node.Send(ep.encCtx, data.returnRoute, handshakeEnvelope{Kind: msgConfirm})

	ep.markReady()
	return nil
}
