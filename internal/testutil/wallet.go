package testutil

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/roach88/signedstore/internal/canon"
	"github.com/roach88/signedstore/internal/signature"
)

// Wallet is a throwaway signing identity.
type Wallet struct {
	Key     *ecdsa.PrivateKey
	Address string
}

// NewWallet generates a fresh key pair.
func NewWallet(t testing.TB) Wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return Wallet{Key: key, Address: signature.AddressFromKey(key)}
}

// Sign signs payload the way a client would and fails the test on error.
func (w Wallet) Sign(t testing.TB, payload map[string]any, exclude canon.Exclusion) string {
	t.Helper()
	sig, err := signature.Sign(w.Key, payload, exclude)
	if err != nil {
		t.Fatalf("sign payload: %v", err)
	}
	return sig
}
