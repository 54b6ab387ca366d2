// Package signature signs and verifies payloads with EIP-191 personal
// messages over their canonical form, the scheme browser wallets use for
// personal_sign.
package signature

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/roach88/signedstore/internal/canon"
	"github.com/roach88/signedstore/internal/record"
)

// Exclusion is always removed before signing. Kinds with counters extend it
// with "statistic*".
var Exclusion = canon.Exclusion{"sig", "hash", "_id", "createdAt", "updatedAt", "__v"}

// Length of an r||s||v signature.
const Length = crypto.SignatureLength

// Sign signs the canonical form of payload. The result is 0x-hex of
// r||s||v with v in {27, 28}.
func Sign(key *ecdsa.PrivateKey, payload map[string]any, exclude canon.Exclusion) (string, error) {
	msg, err := canon.Encode(payload, exclude)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	sig, err := crypto.Sign(accounts.TextHash(msg), key)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Recover returns the address that produced sig over payload.
func Recover(payload map[string]any, sig string, exclude canon.Exclusion) (common.Address, error) {
	raw, err := hexutil.Decode(sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode signature: %w", err)
	}
	if len(raw) != Length {
		return common.Address{}, fmt.Errorf("signature length %d, want %d", len(raw), Length)
	}
	// Wallets emit v in {27, 28}; SigToPub wants {0, 1}.
	rs := make([]byte, Length)
	copy(rs, raw)
	v := rs[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", raw[crypto.RecoveryIDOffset])
	}
	rs[crypto.RecoveryIDOffset] = v

	msg, err := canon.Encode(payload, exclude)
	if err != nil {
		return common.Address{}, err
	}
	pub, err := crypto.SigToPub(accounts.TextHash(msg), rs)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether address signed payload. The address comparison is
// case-insensitive; IsValidAddress enforces the checksum separately.
func Verify(address string, payload map[string]any, sig string, exclude canon.Exclusion) bool {
	if !IsValidAddress(address) {
		return false
	}
	signer, err := Recover(payload, sig, exclude)
	if err != nil {
		return false
	}
	return strings.EqualFold(signer.Hex(), address)
}

// Validate is Verify with the single SIGNATURE_INVALID error callers see for
// every failure.
func Validate(address string, payload map[string]any, sig string, exclude canon.Exclusion) error {
	if !Verify(address, payload, sig, exclude) {
		return record.ErrSignatureInvalid
	}
	return nil
}

// IsValidAddress reports whether s is 0x followed by 40 hex digits. Mixed-case
// addresses must carry a valid EIP-55 checksum.
func IsValidAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(s).Hex() == s
}

// ParsePrivateKey decodes a hex secp256k1 key, with or without 0x.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// AddressFromKey returns the checksummed address of key.
func AddressFromKey(key *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// GenerateKey returns a fresh random key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}
