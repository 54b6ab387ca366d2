package social

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roach88/signedstore/internal/entity"
	"github.com/roach88/signedstore/internal/mutation"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/schema"
	"github.com/roach88/signedstore/internal/store"
	"github.com/roach88/signedstore/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *testutil.Clock) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "social.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg, err := schema.Load()
	require.NoError(t, err)

	clock := testutil.NewClock(time.Time{})
	svc, err := New(db, reg, zap.NewNop(), mutation.WithClock(clock))
	require.NoError(t, err)
	return svc, clock
}

func createPost(t *testing.T, svc *Service, w testutil.Wallet, body string) entity.Post {
	t.Helper()
	p := record.Payload{
		"wallet":       w.Address,
		"version":      "1",
		"authorName":   "alice",
		"authorAvatar": "https://example.com/alice.png",
		"body":         body,
	}
	post, err := svc.Posts.Create(context.Background(), w.Address, p, w.Sign(t, p, svc.Posts.Kind().SignatureExclusion()))
	require.NoError(t, err)
	return post
}

func reactionPayload(w testutil.Wallet, refType, refHash string) record.Payload {
	return record.Payload{
		"wallet":  w.Address,
		"version": "1",
		"refType": refType,
		"refHash": refHash,
	}
}

func TestService_Kinds(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, []string{"comment", "contact", "favorite", "follower", "like", "post", "profile"}, svc.Kinds())

	_, err := svc.Handler("repost")
	assert.ErrorIs(t, err, record.ErrInvalidInput)
}

func TestLike_BumpsTargetCounter(t *testing.T) {
	svc, clock := newTestService(t)
	alice := testutil.NewWallet(t)
	bob := testutil.NewWallet(t)
	ctx := context.Background()

	post := createPost(t, svc, alice, "hello")

	p := reactionPayload(bob, entity.RefPost, post.Hash)
	sig := bob.Sign(t, p, svc.Likes.Kind().SignatureExclusion())
	like, err := svc.CreateLike(ctx, bob.Address, p, sig)
	require.NoError(t, err)
	assert.Equal(t, post.Hash, like.RefHash)

	got, err := svc.Posts.QueryOne(ctx, "", mutation.Query{By: "hash", Params: map[string]string{"hash": post.Hash}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.StatisticLike)

	_, err = svc.CreateLike(ctx, bob.Address, p, sig)
	assert.ErrorIs(t, err, record.ErrOperateFrequently)

	clock.Advance(time.Minute)
	_, err = svc.CreateLike(ctx, bob.Address, p, sig)
	assert.ErrorIs(t, err, record.ErrDuplicateKey)

	got, err = svc.Posts.QueryOne(ctx, "", mutation.Query{By: "hash", Params: map[string]string{"hash": post.Hash}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.StatisticLike, "rejected likes do not count")

	dp := reactionPayload(bob, entity.RefPost, post.Hash)
	dp["deleted"] = string(record.DeleteRequestMarker)
	n, err := svc.DeleteLike(ctx, bob.Address, dp, bob.Sign(t, dp, svc.Likes.Kind().SignatureExclusionFor(schema.OpDelete)))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = svc.Posts.QueryOne(ctx, "", mutation.Query{By: "hash", Params: map[string]string{"hash": post.Hash}})
	require.NoError(t, err)
	assert.Zero(t, got.StatisticLike)
}

func TestFavorite_OnComment(t *testing.T) {
	svc, _ := newTestService(t)
	alice := testutil.NewWallet(t)
	bob := testutil.NewWallet(t)
	ctx := context.Background()

	post := createPost(t, svc, alice, "hello")
	cp := record.Payload{
		"wallet":       alice.Address,
		"version":      "1",
		"authorName":   "alice",
		"authorAvatar": "https://example.com/alice.png",
		"body":         "self reply",
		"postHash":     post.Hash,
	}
	comment, err := svc.Comments.Create(ctx, alice.Address, cp, alice.Sign(t, cp, svc.Comments.Kind().SignatureExclusion()))
	require.NoError(t, err)

	h, err := svc.Handler(entity.KindFavorite)
	require.NoError(t, err)
	p := reactionPayload(bob, entity.RefComment, comment.Hash)
	out, err := h.Create(ctx, bob.Address, p, bob.Sign(t, p, h.Kind().SignatureExclusion()))
	require.NoError(t, err)
	fav, ok := out.(entity.Favorite)
	require.True(t, ok)
	assert.Equal(t, entity.RefComment, fav.RefType)

	got, err := svc.Comments.QueryOne(ctx, "", mutation.Query{By: "hash", Params: map[string]string{"hash": comment.Hash}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.StatisticFavorite)
	assert.Zero(t, got.StatisticLike)
}

func TestReaction_RequiresLiveTarget(t *testing.T) {
	svc, _ := newTestService(t)
	bob := testutil.NewWallet(t)
	ctx := context.Background()

	p := reactionPayload(bob, entity.RefPost, "0x"+strings.Repeat("9", 64))
	_, err := svc.CreateLike(ctx, bob.Address, p, bob.Sign(t, p, svc.Likes.Kind().SignatureExclusion()))
	assert.ErrorIs(t, err, record.ErrNotFound)

	p = reactionPayload(bob, "repost", "0x"+strings.Repeat("9", 64))
	_, err = svc.CreateFavorite(ctx, bob.Address, p, bob.Sign(t, p, svc.Favorites.Kind().SignatureExclusion()))
	assert.ErrorIs(t, err, record.ErrInvalidInput)

	list, err := svc.Likes.QueryList(ctx, bob.Address, mutation.Query{By: "wallet"})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestHandler_Dispatch(t *testing.T) {
	svc, _ := newTestService(t)
	alice := testutil.NewWallet(t)
	ctx := context.Background()

	h, err := svc.Handler(entity.KindProfile)
	require.NoError(t, err)
	p := record.Payload{"wallet": alice.Address, "version": "1", "key": "bio", "value": "hi"}
	out, err := h.Create(ctx, alice.Address, p, alice.Sign(t, p, h.Kind().SignatureExclusion()))
	require.NoError(t, err)
	assert.Equal(t, "hi", out.(entity.Profile).Value)

	list, err := h.QueryList(ctx, alice.Address, mutation.Query{By: "wallet"})
	require.NoError(t, err)
	page := list.(record.ListResult[entity.Profile])
	assert.Equal(t, 1, page.Total)
}
