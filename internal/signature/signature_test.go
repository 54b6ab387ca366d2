package signature

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/signedstore/internal/canon"
	"github.com/roach88/signedstore/internal/record"
)

// Well-known test key (the first dev account of many local chains).
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func testPayload() map[string]any {
	return map[string]any{
		"wallet":     testAddress,
		"version":    "1",
		"authorName": "alice",
		"body":       "gm <world>",
		"pictures":   []any{"ipfs://a"},
	}
}

func TestAddressFromKey(t *testing.T) {
	key, err := ParsePrivateKey("0x" + testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, testAddress, AddressFromKey(key))
}

func TestSignVerify_RoundTrip(t *testing.T) {
	key, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)

	sig, err := Sign(key, testPayload(), Exclusion)
	require.NoError(t, err)

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	require.Len(t, raw, Length)
	assert.Contains(t, []byte{27, 28}, raw[64])

	assert.True(t, Verify(testAddress, testPayload(), sig, Exclusion))
	assert.True(t, Verify(strings.ToLower(testAddress), testPayload(), sig, Exclusion))
	assert.NoError(t, Validate(testAddress, testPayload(), sig, Exclusion))
}

func TestVerify_IgnoresExcludedFields(t *testing.T) {
	key, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)
	sig, err := Sign(key, testPayload(), Exclusion.With("statistic*"))
	require.NoError(t, err)

	withServerFields := testPayload()
	withServerFields["sig"] = sig
	withServerFields["_id"] = "65f000000000000000000000"
	withServerFields["statisticView"] = 12

	assert.True(t, Verify(testAddress, withServerFields, sig, Exclusion.With("statistic*")))
	assert.False(t, Verify(testAddress, withServerFields, sig, Exclusion))
}

func TestVerify_Failures(t *testing.T) {
	key, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)
	sig, err := Sign(key, testPayload(), Exclusion)
	require.NoError(t, err)

	other, err := GenerateKey()
	require.NoError(t, err)

	tampered := testPayload()
	tampered["body"] = "gm <world>!"

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	zeroBased := append([]byte(nil), raw...)
	zeroBased[64] -= 27
	badRecovery := append([]byte(nil), raw...)
	badRecovery[64] = 35

	tests := []struct {
		name    string
		address string
		payload map[string]any
		sig     string
		want    bool
	}{
		{"zero-based recovery id accepted", testAddress, testPayload(), hexutil.Encode(zeroBased), true},
		{"other signer", AddressFromKey(other), testPayload(), sig, false},
		{"tampered payload", testAddress, tampered, sig, false},
		{"empty payload", testAddress, map[string]any{}, sig, false},
		{"not hex", testAddress, testPayload(), "0xzz", false},
		{"missing prefix", testAddress, testPayload(), sig[2:], false},
		{"short", testAddress, testPayload(), sig[:100], false},
		{"bad recovery id", testAddress, testPayload(), hexutil.Encode(badRecovery), false},
		{"malformed address", "0x123", testPayload(), sig, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(tt.address, tt.payload, tt.sig, Exclusion))
			if !tt.want {
				err := Validate(tt.address, tt.payload, tt.sig, Exclusion)
				assert.ErrorIs(t, err, record.ErrSignatureInvalid)
			}
		})
	}
}

func TestSign_MatchesCanonicalMessage(t *testing.T) {
	key, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)

	ordered := map[string]any{"a": 1, "b": 2}
	sig, err := Sign(key, ordered, nil)
	require.NoError(t, err)

	msg, err := canon.Encode(map[string]any{"b": 2, "a": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(msg))

	addr, err := Recover(map[string]any{"b": 2, "a": 1}, sig, nil)
	require.NoError(t, err)
	assert.Equal(t, testAddress, addr.Hex())
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{testAddress, true},
		{strings.ToLower(testAddress), true},
		{"0x" + strings.ToUpper(testAddress[2:]), true},
		{"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92267", false},
		{"0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266", false},
		{testAddress[2:], false},
		{"0x1234", false},
		{"0xg39fd6e51aad88f6f4ce6ab8827279cfffb92266", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAddress(tt.in))
		})
	}
}
