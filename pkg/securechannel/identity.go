package securechannel

import (
	"bytes"
	"crypto/sha256"

	"github.com/ockamio/ockam/pkg/vault"
)

// LocalIdentity is a node's long-lived signing identity. Its Ed25519 key
// pair proves who originated a secure channel during the handshake's
// identity-proof step; its identifier is the SHA-256 digest of its public
// key, the value stamped onto every message a ready decryption worker
// emits.
type LocalIdentity struct {
	v          vault.Vault
	secret     vault.Secret
	identifier []byte
}

// NewLocalIdentity generates a fresh Ed25519 identity in v.
func NewLocalIdentity(v vault.Vault) (*LocalIdentity, error) {
	secret, err := v.SecretGenerate(vault.SecretAttributes{
		Type:   vault.SecretTypeEd25519,
		Length: vault.Ed25519SecretLength,
	})
	if err != nil {
		return nil, err
	}
	pub, err := v.SecretPublicKey(secret)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(pub.Bytes())
	return &LocalIdentity{v: v, secret: secret, identifier: sum[:]}, nil
}

// Identifier returns this identity's stable id: sha256 of its public key.
func (li *LocalIdentity) Identifier() []byte {
	return append([]byte(nil), li.identifier...)
}

// PublicKey returns this identity's Ed25519 public key.
func (li *LocalIdentity) PublicKey() (vault.PublicKey, error) {
	return li.v.SecretPublicKey(li.secret)
}

// Sign produces a signature over data with this identity's key.
func (li *LocalIdentity) Sign(data []byte) (vault.Signature, error) {
	return li.v.Sign(li.secret, data)
}

// Contact is the portable, wire-carried representation of a peer identity:
// its public key plus the identifier the peer claims for it. Verified by
// checking the identifier is really the digest of the public key — it
// proves nothing about ownership of the key by itself, that's what the
// accompanying handshake signature is for.
type Contact struct {
	Identifier []byte
	PublicKey  vault.PublicKey
}

// VerifyContact checks that identifier is the SHA-256 digest of
// publicKeyBytes before accepting them as a matched pair.
func VerifyContact(identifier, publicKeyBytes []byte) (Contact, bool) {
	sum := sha256.Sum256(publicKeyBytes)
	if !bytes.Equal(sum[:], identifier) {
		return Contact{}, false
	}
	return Contact{
		Identifier: append([]byte(nil), identifier...),
		PublicKey:  vault.NewPublicKey(publicKeyBytes, vault.SecretTypeEd25519),
	}, true
}
