package vault

// Vault is the cryptographic primitive surface the secure channel
// handshake and data plane depend on. Every operation takes and returns
// opaque Secret handles rather than raw key material — callers never see
// private key bytes.
type Vault interface {
	// SecretGenerate creates a new random secret matching attrs.
	SecretGenerate(attrs SecretAttributes) (Secret, error)
	// SecretImport creates a secret from known bytes, e.g. loading a
	// static identity key. Its length must match attrs.Length.
	SecretImport(attrs SecretAttributes, data []byte) (Secret, error)
	// SecretPublicKey returns the public half of an asymmetric secret.
	SecretPublicKey(s Secret) (PublicKey, error)
	// SecretDestroy removes a secret from storage, zeroing its backing
	// array first.
	SecretDestroy(s Secret) error

	// Sign produces an Ed25519 signature over data using s.
	Sign(s Secret, data []byte) (Signature, error)
	// Verify checks an Ed25519 signature over data against pub.
	Verify(sig Signature, pub PublicKey, data []byte) (bool, error)

	// KeyAgreement performs X25519 ECDH between mySecret and theirPublic,
	// storing the resulting shared secret as a new Buffer-type Secret.
	KeyAgreement(mySecret Secret, theirPublic PublicKey) (Secret, error)
	// Hkdf runs HKDF-SHA256 over ikm (salt optional — pass the zero
	// Secret to use an all-zero salt), producing numOutputs new
	// Buffer-type secrets of outputLength bytes each.
	Hkdf(salt Secret, ikm Secret, info []byte, numOutputs int, outputLength int) ([]Secret, error)

	// AeadEncrypt encrypts plaintext with s (an Aes/Buffer-type secret of
	// ChaCha20Poly1305KeyLength bytes) under nonce and aad.
	AeadEncrypt(s Secret, plaintext, nonce, aad []byte) ([]byte, error)
	// AeadDecrypt reverses AeadEncrypt.
	AeadDecrypt(s Secret, ciphertext, nonce, aad []byte) ([]byte, error)
}
