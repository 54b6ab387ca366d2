package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectID_TimestampAndHex(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id := NewObjectID(at)

	assert.Len(t, id.Hex(), 24)
	assert.Equal(t, at, id.Timestamp())

	parsed, err := ParseObjectID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestObjectID_Unique(t *testing.T) {
	at := time.Unix(1700000000, 0)
	seen := make(map[ObjectID]bool)
	for i := 0; i < 1000; i++ {
		id := NewObjectID(at)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestObjectID_ParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "zz0000000000000000000000", "0000000000000000000000000"} {
		_, err := ParseObjectID(s)
		assert.Error(t, err, s)
	}
}

func TestTombstoneMarkers(t *testing.T) {
	assert.Equal(t, AliveMarker, Tombstone(ObjectIDFromSeconds(0).Hex()))
	assert.Equal(t, DeleteRequestMarker, Tombstone(ObjectIDFromSeconds(1).Hex()))
	assert.True(t, AliveMarker.IsAlive())
	assert.False(t, DeleteRequestMarker.IsAlive())
	assert.True(t, DeleteRequestMarker.IsDeleteRequest())

	id := NewObjectID(time.Now())
	assert.Equal(t, id.Hex(), TombstoneFor(id).String())
	assert.False(t, TombstoneFor(id).IsAlive())
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NewError(CodeDuplicateKey, "post", "natural key %q taken", "x")
	wrapped := fmt.Errorf("create: %w", err)

	assert.True(t, errors.Is(wrapped, ErrDuplicateKey))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, CodeDuplicateKey, CodeOf(wrapped))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "kind=post")
}

func TestError_UnwrapPreservesCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := WrapError(CodeStorageUnavailable, "", "insert", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestWithKind(t *testing.T) {
	err := WithKind(ErrNotFound, "comment")
	assert.Equal(t, "comment", err.(*Error).Kind)
	assert.Empty(t, ErrNotFound.Kind, "sentinel must not be mutated")

	plain := errors.New("x")
	assert.Same(t, plain, WithKind(plain, "comment"))
}

func TestListOptions_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{"defaults", ListOptions{}, ListOptions{PageNo: 1, PageSize: 30, Sort: SortCreatedAt, Order: Descending}},
		{"negative page", ListOptions{PageNo: -3, PageSize: 10}, ListOptions{PageNo: 1, PageSize: 10, Sort: SortCreatedAt, Order: Descending}},
		{"excessive size falls back", ListOptions{PageNo: 2, PageSize: 500}, ListOptions{PageNo: 2, PageSize: 30, Sort: SortCreatedAt, Order: Descending}},
		{"max size kept", ListOptions{PageSize: 100, Sort: SortUpdatedAt, Order: Ascending}, ListOptions{PageNo: 1, PageSize: 100, Sort: SortUpdatedAt, Order: Ascending}},
		{"unknown sort", ListOptions{Sort: "wallet", Order: "sideways"}, ListOptions{PageNo: 1, PageSize: 30, Sort: SortCreatedAt, Order: Descending}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(DefaultPaging()))
		})
	}
}

func TestListOptions_Offset(t *testing.T) {
	assert.Equal(t, 0, ListOptions{PageNo: 1, PageSize: 30}.Offset())
	assert.Equal(t, 60, ListOptions{PageNo: 3, PageSize: 30}.Offset())
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload([]byte(`{"body":"hi","n":12}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12"), p["n"])

	s, ok := p.String("body")
	assert.True(t, ok)
	assert.Equal(t, "hi", s)

	_, err = ParsePayload([]byte(`[1,2]`))
	assert.Error(t, err)
	_, err = ParsePayload([]byte(`null`))
	assert.Error(t, err)
	_, err = ParsePayload([]byte(`{} {}`))
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	type post struct {
		Meta
		Body          string `json:"body"`
		StatisticView int64  `json:"statisticView"`
	}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := Record{
		ID:          NewObjectID(at),
		Owner:       "0xabc",
		Signature:   "0xsig",
		ContentHash: "0xhash",
		Tombstone:   AliveMarker,
		Attributes:  Payload{"body": "hello", "version": "1", "statisticView": json.Number("4")},
		CreatedAt:   at,
		UpdatedAt:   at,
	}

	got, err := Decode[post](rec)
	require.NoError(t, err)
	assert.Equal(t, rec.ID.Hex(), got.ID)
	assert.Equal(t, "0xabc", got.Wallet)
	assert.Equal(t, AliveMarker, got.Deleted)
	assert.Equal(t, "hello", got.Body)
	assert.Equal(t, int64(4), got.StatisticView)
	assert.True(t, at.Equal(got.CreatedAt))
}
