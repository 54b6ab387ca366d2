package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/signedstore/internal/record"
)

const owner = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

var someHash = "0x" + strings.Repeat("1f", 32)

func mustKind(t *testing.T, name string) *Kind {
	t.Helper()
	reg, err := Load()
	require.NoError(t, err)
	k, err := reg.Kind(name)
	require.NoError(t, err)
	return k
}

func TestLoad_EmbeddedKinds(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"comment", "contact", "favorite", "follower", "like", "post", "profile"},
		reg.Names())

	post, err := reg.Kind("post")
	require.NoError(t, err)
	assert.Equal(t, "posts", post.Collection)
	assert.Equal(t, []string{"hash"}, post.NaturalKey)
	assert.True(t, post.UpdateBanned())
	assert.Len(t, post.Counters, 6)
	assert.True(t, post.IsCounter("statisticView"))
	assert.Equal(t, 30*time.Second, post.Throttle.Create)
	assert.Equal(t, 3*time.Second, post.Throttle.Update)
	assert.Equal(t, 3*time.Second, post.Throttle.Delete)

	body := post.Fields["body"]
	assert.Equal(t, TypeString, body.Type)
	assert.True(t, body.Required)
	assert.Equal(t, 2048, body.Limit)
	assert.False(t, post.Fields["remark"].Required)

	contact, err := reg.Kind("contact")
	require.NoError(t, err)
	assert.False(t, contact.UpdateBanned())
	assert.Equal(t, []string{"name", "avatar", "remark", "version"}, contact.Updatable)
	assert.Empty(t, contact.Counters)

	like, err := reg.Kind("like")
	require.NoError(t, err)
	assert.Equal(t, []string{"post", "comment"}, like.Fields["refType"].Enum)

	_, err = reg.Kind("nope")
	assert.ErrorIs(t, err, record.ErrInvalidInput)
}

func TestFinders(t *testing.T) {
	comment := mustKind(t, "comment")

	f, err := comment.Finder("postHash")
	require.NoError(t, err)
	assert.True(t, f.Global())
	assert.True(t, f.List)
	assert.Equal(t, []string{"postHash"}, f.Params())

	f, err = comment.Finder("walletAndHash")
	require.NoError(t, err)
	assert.False(t, f.Global())
	assert.False(t, f.List)
	assert.Equal(t, []string{"hash"}, f.Params())

	_, err = comment.Finder("byNothing")
	assert.ErrorIs(t, err, record.ErrInvalidInput)
}

func TestSignatureExclusion(t *testing.T) {
	post := mustKind(t, "post")
	assert.True(t, post.SignatureExclusion().Excludes("statisticLike"))
	assert.True(t, post.SignatureExclusion().Excludes("sig"))
	assert.False(t, post.SignatureExclusion().Excludes("deleted"))

	contact := mustKind(t, "contact")
	assert.False(t, contact.SignatureExclusion().Excludes("statisticLike"))
	assert.True(t, contact.DigestExclusion().Excludes("deleted"))
}

func TestSignatureExclusionFor(t *testing.T) {
	for _, name := range []string{"post", "comment"} {
		k := mustKind(t, name)
		assert.True(t, k.SignatureExclusionFor(OpCreate).Excludes("hash"), name)
		assert.False(t, k.SignatureExclusionFor(OpUpdate).Excludes("hash"), name)
		assert.False(t, k.SignatureExclusionFor(OpDelete).Excludes("hash"), name)
		assert.True(t, k.SignatureExclusionFor(OpDelete).Excludes("statisticLike"), name)
		assert.True(t, k.SignatureExclusionFor(OpDelete).Excludes("sig"), name)
	}

	like := mustKind(t, "like")
	assert.True(t, like.SignatureExclusionFor(OpDelete).Excludes("hash"))
	assert.Equal(t, like.SignatureExclusion(), like.SignatureExclusionFor(OpDelete))
}

func TestParseOp(t *testing.T) {
	for _, op := range []Op{OpCreate, OpUpdate, OpDelete} {
		got, err := ParseOp(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	_, err := ParseOp("repost")
	assert.ErrorIs(t, err, record.ErrInvalidInput)
}

func validPost() record.Payload {
	return record.Payload{
		"wallet":       owner,
		"version":      "1",
		"authorName":   "alice",
		"authorAvatar": "https://example.com/a.png",
		"body":         "gm",
		"pictures":     []any{"ipfs://a"},
	}
}

func TestValidate_Create(t *testing.T) {
	post := mustKind(t, "post")

	tests := []struct {
		name    string
		mutate  func(p record.Payload)
		wantErr string
	}{
		{"valid", func(p record.Payload) {}, ""},
		{"server fields tolerated", func(p record.Payload) { p["sig"] = "0x"; p["statisticView"] = 5 }, ""},
		{"missing body", func(p record.Payload) { delete(p, "body") }, "body required"},
		{"null body", func(p record.Payload) { p["body"] = nil }, "body required"},
		{"empty body", func(p record.Payload) { p["body"] = "" }, "must not be empty"},
		{"long body", func(p record.Payload) { p["body"] = strings.Repeat("x", 2048) }, "shorter than 2048"},
		{"non-string body", func(p record.Payload) { p["body"] = 7 }, "must be a string"},
		{"not NFC", func(p record.Payload) { p["body"] = "cafe\u0301" }, "NFC"},
		{"long version", func(p record.Payload) { p["version"] = strings.Repeat("9", 16) }, "version"},
		{"bad pictures", func(p record.Payload) { p["pictures"] = []any{"ok", 3} }, "list of strings"},
		{"empty picture", func(p record.Payload) { p["pictures"] = []any{""} }, "each element"},
		{"foreign wallet", func(p record.Payload) { p["wallet"] = "0x0000000000000000000000000000000000000001" }, "wallet does not match"},
		{"unknown field", func(p record.Payload) { p["admin"] = true }, `unknown field "admin"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPost()
			tt.mutate(p)
			err := post.Validate(OpCreate, p, owner)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, record.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_UpdateNeedsOnlyNaturalKey(t *testing.T) {
	profile := mustKind(t, "profile")

	err := profile.Validate(OpUpdate, record.Payload{"key": "nickname", "value": "bob"}, owner)
	assert.NoError(t, err)

	err = profile.Validate(OpUpdate, record.Payload{"value": "bob"}, owner)
	assert.ErrorIs(t, err, record.ErrInvalidInput)
}

func TestValidate_EnumAndHash(t *testing.T) {
	like := mustKind(t, "like")

	ok := record.Payload{"version": "1", "refType": "post", "refHash": someHash}
	assert.NoError(t, like.Validate(OpCreate, ok, owner))

	badType := record.Payload{"version": "1", "refType": "video", "refHash": someHash}
	assert.ErrorIs(t, like.Validate(OpCreate, badType, owner), record.ErrInvalidInput)

	badHash := record.Payload{"version": "1", "refType": "post", "refHash": strings.ToUpper(someHash)}
	assert.ErrorIs(t, like.Validate(OpCreate, badHash, owner), record.ErrInvalidInput)
}

func TestNaturalKeyOf(t *testing.T) {
	like := mustKind(t, "like")
	key, err := like.NaturalKeyOf(record.Payload{"refType": "post", "refHash": someHash}, "")
	require.NoError(t, err)
	assert.Equal(t, `["post","`+someHash+`"]`, key)

	_, err = like.NaturalKeyOf(record.Payload{"refType": "post"}, "")
	assert.ErrorIs(t, err, record.ErrInvalidInput)

	post := mustKind(t, "post")
	key, err = post.NaturalKeyOf(record.Payload{}, someHash)
	require.NoError(t, err)
	assert.Equal(t, `["`+someHash+`"]`, key)

	fromPayload, err := post.NaturalKeyOf(record.Payload{"hash": someHash}, "")
	require.NoError(t, err)
	assert.Equal(t, key, fromPayload)

	_, err = post.NaturalKeyOf(record.Payload{"hash": "0x12"}, "")
	assert.ErrorIs(t, err, record.ErrInvalidInput)
}

func TestAttributes(t *testing.T) {
	post := mustKind(t, "post")
	p := validPost()
	p["statisticView"] = 99
	p["sig"] = "0xsig"
	p["_id"] = "x"

	attrs := post.Attributes(p)
	assert.NotContains(t, attrs, "sig")
	assert.NotContains(t, attrs, "_id")
	assert.NotContains(t, attrs, "wallet")
	assert.Equal(t, 0, attrs["statisticView"])
	assert.Equal(t, 0, attrs["statisticReply"])
	assert.Equal(t, "gm", attrs["body"])
	assert.Equal(t, 99, p["statisticView"], "payload must not be mutated")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `kinds: {`, ""},
		{"no kinds", `other: 1`, "kinds is required"},
		{"natural key not required", `
kinds: x: {
	collection: "xs"
	naturalKey: ["a"]
	fields: a: {type: "string"}
	finders: {}
	throttle: {create: "1s", update: "1s", delete: "1s"}
}`, "must be a required field"},
		{"bad duration", `
kinds: x: {
	collection: "xs"
	naturalKey: ["hash"]
	fields: {}
	finders: {}
	throttle: {create: "soon", update: "1s", delete: "1s"}
}`, "throttle.create"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.cue", []byte(tt.src))
			require.Error(t, err)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestOverrideThrottle(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	zero := time.Duration(0)
	reg.OverrideThrottle(&zero, nil, nil)

	post, err := reg.Kind("post")
	require.NoError(t, err)
	assert.Zero(t, post.Throttle.Create)
	assert.Equal(t, 3*time.Second, post.Throttle.Update)
}
