package mutation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/signedstore/internal/entity"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/testutil"
)

type observation struct {
	op   string
	kind string
	code record.Code
}

type recordingObserver struct {
	seen []observation
}

func (r *recordingObserver) Observe(op, kind string, err error, _ time.Time) {
	r.seen = append(r.seen, observation{op: op, kind: kind, code: record.CodeOf(err)})
}

func TestStore_ReportsOperations(t *testing.T) {
	fx := newFixture(t)
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := &recordingObserver{}
	posts := newStore[entity.Post](t, fx, entity.KindPost, WithLogger(zap.New(core)), WithMetrics(metrics))
	alice := testutil.NewWallet(t)
	ctx := context.Background()

	p, sig := signed(t, posts, alice, postPayload(alice, "hello"))
	_, err := posts.Create(ctx, alice.Address, p, sig)
	require.NoError(t, err)
	_, err = posts.Create(ctx, alice.Address, p, sig)
	require.Error(t, err)

	assert.Equal(t, []observation{
		{op: "create", kind: entity.KindPost},
		{op: "create", kind: entity.KindPost, code: record.CodeOperateFrequently},
	}, metrics.seen)

	rejected := logs.FilterMessage("operation rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.WarnLevel, rejected[0].Level)
	fields := rejected[0].ContextMap()
	assert.Equal(t, entity.KindPost, fields["kind"])
	assert.Equal(t, "create", fields["op"])
	assert.Equal(t, alice.Address, fields["wallet"])
	assert.Equal(t, string(record.CodeOperateFrequently), fields["code"])

	assert.Equal(t, 1, logs.FilterMessage("operation applied").Len())
}

func TestStore_LogsReadMissesAtDebug(t *testing.T) {
	fx := newFixture(t)
	core, logs := observer.New(zapcore.DebugLevel)
	posts := newStore[entity.Post](t, fx, entity.KindPost, WithLogger(zap.New(core)))
	ctx := context.Background()

	missing := "0x" + strings.Repeat("a", 64)
	_, err := posts.QueryOne(ctx, "", Query{By: "hash", Params: map[string]string{"hash": missing}})
	require.ErrorIs(t, err, record.ErrNotFound)
	_, err = posts.QueryOne(ctx, "", Query{By: "nope"})
	require.ErrorIs(t, err, record.ErrInvalidInput)

	rejected := logs.FilterMessage("operation rejected").All()
	require.Len(t, rejected, 2)
	assert.Equal(t, zapcore.DebugLevel, rejected[0].Level)
	assert.Equal(t, string(record.CodeNotFound), rejected[0].ContextMap()["code"])
	assert.Equal(t, zapcore.WarnLevel, rejected[1].Level)
	assert.Equal(t, string(record.CodeInvalidInput), rejected[1].ContextMap()["code"])
}
