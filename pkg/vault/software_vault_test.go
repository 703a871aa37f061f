package vault_test

import (
	"bytes"
	"testing"

	"github.com/ockamio/ockam/pkg/vault"
)

func TestKeyAgreementMatchesBothSides(t *testing.T) {
	v := vault.NewSoftwareVault()

	aSecret, err := v.SecretGenerate(vault.SecretAttributes{Type: vault.SecretTypeX25519, Length: vault.Curve25519SecretLength})
	if err != nil {
		t.Fatalf("SecretGenerate a: %v", err)
	}
	bSecret, err := v.SecretGenerate(vault.SecretAttributes{Type: vault.SecretTypeX25519, Length: vault.Curve25519SecretLength})
	if err != nil {
		t.Fatalf("SecretGenerate b: %v", err)
	}

	aPub, err := v.SecretPublicKey(aSecret)
	if err != nil {
		t.Fatalf("SecretPublicKey a: %v", err)
	}
	bPub, err := v.SecretPublicKey(bSecret)
	if err != nil {
		t.Fatalf("SecretPublicKey b: %v", err)
	}

	sharedA, err := v.KeyAgreement(aSecret, bPub)
	if err != nil {
		t.Fatalf("KeyAgreement a: %v", err)
	}
	sharedB, err := v.KeyAgreement(bSecret, aPub)
	if err != nil {
		t.Fatalf("KeyAgreement b: %v", err)
	}

	ctA, err := v.AeadEncrypt(sharedA, []byte("hello"), make([]byte, vault.ChaCha20Poly1305NonceLength), nil)
	if err != nil {
		t.Fatalf("AeadEncrypt: %v", err)
	}
	ptB, err := v.AeadDecrypt(sharedB, ctA, make([]byte, vault.ChaCha20Poly1305NonceLength), nil)
	if err != nil {
		t.Fatalf("AeadDecrypt: %v", err)
	}
	if !bytes.Equal(ptB, []byte("hello")) {
		t.Fatalf("decrypted = %q, want %q", ptB, "hello")
	}
}

func TestSignVerify(t *testing.T) {
	v := vault.NewSoftwareVault()

	s, err := v.SecretGenerate(vault.SecretAttributes{Type: vault.SecretTypeEd25519, Length: vault.Ed25519SecretLength})
	if err != nil {
		t.Fatalf("SecretGenerate: %v", err)
	}
	pub, err := v.SecretPublicKey(s)
	if err != nil {
		t.Fatalf("SecretPublicKey: %v", err)
	}

	data := []byte("channel binding")
	sig, err := v.Sign(s, data)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	ok, err := v.Verify(sig, pub, data)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("signature did not verify")
	}

	ok, err = v.Verify(sig, pub, []byte("tampered"))
	if err != nil {
		t.Fatalf("Verify(tampered): %v", err)
	}
	if ok {
		t.Fatal("signature verified over tampered data")
	}
}

func TestHkdfDerivesDistinctOutputs(t *testing.T) {
	v := vault.NewSoftwareVault()

	ikm, err := v.SecretGenerate(vault.SecretAttributes{Type: vault.SecretTypeBuffer, Length: 32})
	if err != nil {
		t.Fatalf("SecretGenerate: %v", err)
	}

	outs, err := v.Hkdf(vault.Secret{}, ikm, []byte("info"), 2, vault.ChaCha20Poly1305KeyLength)
	if err != nil {
		t.Fatalf("Hkdf: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(outs))
	}

	ct1, err := v.AeadEncrypt(outs[0], []byte("x"), make([]byte, vault.ChaCha20Poly1305NonceLength), nil)
	if err != nil {
		t.Fatalf("AeadEncrypt k1: %v", err)
	}
	ct2, err := v.AeadEncrypt(outs[1], []byte("x"), make([]byte, vault.ChaCha20Poly1305NonceLength), nil)
	if err != nil {
		t.Fatalf("AeadEncrypt k2: %v", err)
	}
	if bytes.Equal(ct1, ct2) {
		t.Fatal("k1 and k2 produced identical ciphertext — derivation did not produce distinct keys")
	}
}

func TestSecretDestroyZeroesAndRemoves(t *testing.T) {
	v := vault.NewSoftwareVault()

	s, err := v.SecretGenerate(vault.SecretAttributes{Type: vault.SecretTypeBuffer, Length: 32})
	if err != nil {
		t.Fatalf("SecretGenerate: %v", err)
	}
	if err := v.SecretDestroy(s); err != nil {
		t.Fatalf("SecretDestroy: %v", err)
	}
	if _, err := v.AeadEncrypt(s, []byte("x"), make([]byte, vault.ChaCha20Poly1305NonceLength), nil); err == nil {
		t.Fatal("expected error using destroyed secret")
	}
}
