// Package vault provides the cryptographic primitives the secure channel
// handshake and data plane build on, behind a small interface so callers
// never touch raw key material directly — grounded on the original
// implementation's ockam_vault/src/software_vault.rs, which stores secrets
// in memory keyed by an opaque handle and exposes both synchronous and
// (here, the only mode) async-free accessors.
package vault

import (
	"fmt"

	"github.com/ockamio/ockam/pkg/failfast"
)

// SecretType names the cryptographic role a Secret plays. Governs which
// operations accept it.
type SecretType uint8

const (
	SecretTypeBuffer  SecretType = iota // opaque bytes, e.g. a derived shared secret
	SecretTypeAes                       // symmetric AEAD key
	SecretTypeX25519                    // Curve25519 key agreement key
	SecretTypeEd25519                   // Ed25519 signing key
)

func (t SecretType) String() string {
	switch t {
	case SecretTypeBuffer:
		return "Buffer"
	case SecretTypeAes:
		return "Aes"
	case SecretTypeX25519:
		return "X25519"
	case SecretTypeEd25519:
		return "Ed25519"
	default:
		return fmt.Sprintf("SecretType(%d)", uint8(t))
	}
}

// SecretPersistence governs whether a secret survives past the handshake
// that created it. The software vault does not persist anything to disk
// either way — persistence is recorded for callers that care, not enforced
// here.
type SecretPersistence uint8

const (
	Ephemeral SecretPersistence = iota
	Persistent
)

const (
	// Curve25519SecretLength is the byte length of an X25519 private key.
	Curve25519SecretLength = 32
	// Curve25519PublicLength is the byte length of an X25519 public key.
	Curve25519PublicLength = 32
	// Ed25519SecretLength is the byte length of an Ed25519 seed.
	Ed25519SecretLength = 32
	// ChaCha20Poly1305KeyLength is the byte length of a ChaCha20-Poly1305 key.
	ChaCha20Poly1305KeyLength = 32
	// ChaCha20Poly1305NonceLength is the byte length of the nonce this
	// package builds from the secure channel's monotonic counter.
	ChaCha20Poly1305NonceLength = 12
)

// SecretAttributes describes a secret to be generated or imported: its
// type, how long it should live, and its expected byte length.
type SecretAttributes struct {
	Type        SecretType
	Persistence SecretPersistence
	Length      int
}

// Secret is an opaque handle into a Vault's internal storage. It carries
// no key material itself — SecretGenerate/SecretImport hand one out, and
// every other operation takes it as an argument instead of raw bytes.
type Secret struct {
	id uint64
}

// PublicKey is the public half of an asymmetric Secret.
type PublicKey struct {
	data []byte
	typ  SecretType
}

// NewPublicKey wraps raw public key bytes with their secret type.
func NewPublicKey(data []byte, typ SecretType) PublicKey {
	failfast.NotNil(data, "data")
	cp := make([]byte, len(data))
	copy(cp, data)
	return PublicKey{data: cp, typ: typ}
}

func (p PublicKey) Bytes() []byte   { cp := make([]byte, len(p.data)); copy(cp, p.data); return cp }
func (p PublicKey) Type() SecretType { return p.typ }

// Signature is the output of Sign / input to Verify.
type Signature []byte
