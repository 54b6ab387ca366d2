// Package digest derives the content-addressed identity of a payload.
package digest

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/roach88/signedstore/internal/canon"
)

// Exclusion is the default digest exclusion: every field the signature
// excludes plus the lifecycle fields, so the hash names content rather than
// state.
var Exclusion = canon.Exclusion{
	"sig", "hash", "_id", "createdAt", "updatedAt", "__v",
	"deleted", "statistic*",
}

// Digest returns the Keccak-256 hash of the canonical form of payload with the
// excluded fields removed, as 0x-prefixed lowercase hex.
func Digest(payload map[string]any, exclude canon.Exclusion) (string, error) {
	msg, err := canon.Encode(payload, exclude)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return crypto.Keccak256Hash(msg).Hex(), nil
}

// IsValidHash reports whether s is 0x followed by 64 lowercase hex digits.
func IsValidHash(s string) bool {
	body, ok := strings.CutPrefix(s, "0x")
	if !ok || len(body) != 64 {
		return false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
