package aptos

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"testing"
)

func TestParseFunctionID(t *testing.T) {
	addr, module, fn, err := parseFunctionID("0x1::coin::transfer")
	if err != nil {
		t.Fatalf("parseFunctionID: %v", err)
	}
	if module != "coin" || fn != "transfer" {
		t.Errorf("module=%q fn=%q, want coin/transfer", module, fn)
	}
	if addr[31] != 1 {
		t.Errorf("expected address to end in 0x01, got %x", addr)
	}
}

func TestParseFunctionID_RejectsMalformed(t *testing.T) {
	if _, _, _, err := parseFunctionID("not-a-function-id"); err == nil {
		t.Fatal("expected error for malformed function id")
	}
}

func TestIsNativeAPT(t *testing.T) {
	tests := map[string]bool{
		"0x1::aptos_coin::AptosCoin": true,
		"0xa":                        true,
		"0x000000000000000000000000000000000000000000000000000000000000000a": true,
		"0x1::ami::AMI":              false,
		"0x5":                        false,
	}
	for addr, want := range tests {
		if got := isNativeAPT(addr); got != want {
			t.Errorf("isNativeAPT(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestLoadAccount_DerivesDeterministicAddress(t *testing.T) {
	seed := bytes.Repeat([]byte{0x01}, ed25519.SeedSize)
	priv, addr1, err := loadAccount("0x" + hex.EncodeToString(seed))
	if err != nil {
		t.Fatalf("loadAccount: %v", err)
	}
	if len(priv) != ed25519.PrivateKeySize {
		t.Fatalf("unexpected private key size: %d", len(priv))
	}
	_, addr2, err := loadAccount(hex.EncodeToString(seed))
	if err != nil {
		t.Fatalf("loadAccount (no 0x prefix): %v", err)
	}
	if addr1 != addr2 {
		t.Error("address derivation must be independent of the 0x prefix")
	}
}

func TestLoadAccount_RejectsBadSeed(t *testing.T) {
	if _, _, err := loadAccount("not-hex"); err == nil {
		t.Fatal("expected error for non-hex private key")
	}
	if _, _, err := loadAccount("0xabcd"); err == nil {
		t.Fatal("expected error for short seed")
	}
}

func TestSigningMessage_IsDeterministic(t *testing.T) {
	rawTxn := []byte{1, 2, 3}
	m1 := signingMessage(rawTxn)
	m2 := signingMessage(rawTxn)
	if !bytes.Equal(m1, m2) {
		t.Error("signingMessage must be deterministic for the same input")
	}
	if len(m1) != 32+len(rawTxn) {
		t.Errorf("expected domain-separator prefix + raw txn length, got %d", len(m1))
	}
}

func TestEncodeSignedTransaction_AppendsAuthenticator(t *testing.T) {
	rawTxn := []byte{0xde, 0xad}
	pub := bytes.Repeat([]byte{0xaa}, ed25519.PublicKeySize)
	sig := bytes.Repeat([]byte{0xbb}, ed25519.SignatureSize)

	got := encodeSignedTransaction(rawTxn, pub, sig)
	if !bytes.HasPrefix(got, rawTxn) {
		t.Fatal("signed transaction must be prefixed by the raw transaction bytes")
	}
	rest := got[len(rawTxn):]
	if rest[0] != ed25519AuthenticatorVariant {
		t.Errorf("expected ed25519 authenticator variant byte, got %d", rest[0])
	}
}
