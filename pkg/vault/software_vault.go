package vault

import (
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/ockamio/ockam/pkg/failfast"
)

// entry is one stored secret: its key material plus the attributes it was
// created with, mirroring the original's VaultEntry (key_id/key_attributes/
// key triple, minus the optional persistent key_id since this
// implementation does not carry a persistent key store).
type entry struct {
	attrs SecretAttributes
	key   []byte
}

// SoftwareVault is an in-memory Vault: every secret lives only in this
// process's heap, looked up by an incrementing handle, guarded by a single
// RWMutex — the same shape as the original's SoftwareVault/VaultStorage
// (a BTreeMap of entries behind a RwLock with a monotonic next_id).
type SoftwareVault struct {
	mu      sync.RWMutex
	entries map[uint64]*entry
	nextID  uint64
}

// NewSoftwareVault creates an empty vault.
func NewSoftwareVault() *SoftwareVault {
	return &SoftwareVault{entries: make(map[uint64]*entry)}
}

var _ Vault = (*SoftwareVault)(nil)

func (v *SoftwareVault) insert(attrs SecretAttributes, key []byte) Secret {
	failfast.NotNil(key, "key")
	failfast.If(len(key) > 0, "cannot insert a zero-length secret")
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	v.entries[v.nextID] = &entry{attrs: attrs, key: key}
	return Secret{id: v.nextID}
}

func (v *SoftwareVault) get(s Secret) (*entry, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.entries[s.id]
	if !ok {
		return nil, errEntryNotFound()
	}
	return e, nil
}

func (v *SoftwareVault) SecretGenerate(attrs SecretAttributes) (Secret, error) {
	key := make([]byte, attrs.Length)
	switch attrs.Type {
	case SecretTypeX25519:
		if attrs.Length != Curve25519SecretLength {
			return Secret{}, errInvalidLength(Curve25519SecretLength, attrs.Length)
		}
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return Secret{}, err
		}
		key[0] &= 248
		key[31] &= 127
		key[31] |= 64
	case SecretTypeEd25519:
		if attrs.Length != Ed25519SecretLength {
			return Secret{}, errInvalidLength(Ed25519SecretLength, attrs.Length)
		}
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return Secret{}, err
		}
	default:
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return Secret{}, err
		}
	}
	return v.insert(attrs, key), nil
}

func (v *SoftwareVault) SecretImport(attrs SecretAttributes, data []byte) (Secret, error) {
	if len(data) != attrs.Length {
		return Secret{}, errInvalidLength(attrs.Length, len(data))
	}
	key := make([]byte, len(data))
	copy(key, data)
	return v.insert(attrs, key), nil
}

func (v *SoftwareVault) SecretPublicKey(s Secret) (PublicKey, error) {
	e, err := v.get(s)
	if err != nil {
		return PublicKey{}, err
	}
	switch e.attrs.Type {
	case SecretTypeX25519:
		pub, err := curve25519.X25519(e.key, curve25519.Basepoint)
		if err != nil {
			return PublicKey{}, err
		}
		return NewPublicKey(pub, SecretTypeX25519), nil
	case SecretTypeEd25519:
		pub := ed25519.NewKeyFromSeed(e.key).Public().(ed25519.PublicKey)
		return NewPublicKey(pub, SecretTypeEd25519), nil
	default:
		return PublicKey{}, errWrongType("SecretPublicKey", e.attrs.Type)
	}
}

func (v *SoftwareVault) SecretDestroy(s Secret) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[s.id]
	if !ok {
		return errEntryNotFound()
	}
	for i := range e.key {
		e.key[i] = 0
	}
	delete(v.entries, s.id)
	return nil
}

func (v *SoftwareVault) Sign(s Secret, data []byte) (Signature, error) {
	e, err := v.get(s)
	if err != nil {
		return nil, err
	}
	if e.attrs.Type != SecretTypeEd25519 {
		return nil, errWrongType("Sign", e.attrs.Type)
	}
	sig := ed25519.Sign(ed25519.NewKeyFromSeed(e.key), data)
	return Signature(sig), nil
}

func (v *SoftwareVault) Verify(sig Signature, pub PublicKey, data []byte) (bool, error) {
	if pub.Type() != SecretTypeEd25519 {
		return false, errWrongType("Verify", pub.Type())
	}
	return ed25519.Verify(ed25519.PublicKey(pub.Bytes()), data, []byte(sig)), nil
}

func (v *SoftwareVault) KeyAgreement(mySecret Secret, theirPublic PublicKey) (Secret, error) {
	e, err := v.get(mySecret)
	if err != nil {
		return Secret{}, err
	}
	if e.attrs.Type != SecretTypeX25519 || theirPublic.Type() != SecretTypeX25519 {
		return Secret{}, errWrongType("KeyAgreement", e.attrs.Type)
	}
	shared, err := curve25519.X25519(e.key, theirPublic.Bytes())
	if err != nil {
		return Secret{}, err
	}
	attrs := SecretAttributes{Type: SecretTypeBuffer, Persistence: Ephemeral, Length: len(shared)}
	return v.insert(attrs, shared), nil
}

func (v *SoftwareVault) Hkdf(salt Secret, ikm Secret, info []byte, numOutputs int, outputLength int) ([]Secret, error) {
	ikmEntry, err := v.get(ikm)
	if err != nil {
		return nil, err
	}

	var saltBytes []byte
	if salt != (Secret{}) {
		saltEntry, err := v.get(salt)
		if err != nil {
			return nil, err
		}
		saltBytes = saltEntry.key
	}

	reader := hkdf.New(sha256.New, ikmEntry.key, saltBytes, info)
	out := make([]Secret, numOutputs)
	for i := 0; i < numOutputs; i++ {
		buf := make([]byte, outputLength)
		if _, err := io.ReadFull(reader, buf); err != nil {
			return nil, err
		}
		attrs := SecretAttributes{Type: SecretTypeBuffer, Persistence: Ephemeral, Length: outputLength}
		out[i] = v.insert(attrs, buf)
	}
	return out, nil
}

func (v *SoftwareVault) AeadEncrypt(s Secret, plaintext, nonce, aad []byte) ([]byte, error) {
	aead, err := v.aeadFor(s)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

func (v *SoftwareVault) AeadDecrypt(s Secret, ciphertext, nonce, aad []byte) ([]byte, error) {
	aead, err := v.aeadFor(s)
	if err != nil {
		return nil, err
	}
	out, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, &Error{Code: CodeAeadDecrypt, Message: "vault: aead decrypt failed"}
	}
	return out, nil
}

func (v *SoftwareVault) aeadFor(s Secret) (cipher.AEAD, error) {
	e, err := v.get(s)
	if err != nil {
		return nil, err
	}
	if e.attrs.Type != SecretTypeAes && e.attrs.Type != SecretTypeBuffer {
		return nil, errWrongType("Aead", e.attrs.Type)
	}
	if len(e.key) != chacha20poly1305.KeySize {
		return nil, errInvalidLength(chacha20poly1305.KeySize, len(e.key))
	}
	return chacha20poly1305.New(e.key)
}
