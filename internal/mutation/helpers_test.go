package mutation

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/schema"
	"github.com/roach88/signedstore/internal/store"
	"github.com/roach88/signedstore/internal/testutil"
)

// fixture is one database with the embedded kinds and a frozen clock.
type fixture struct {
	db    *store.Store
	reg   *schema.Registry
	clock *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "mutation.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reg, err := schema.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return &fixture{db: db, reg: reg, clock: testutil.NewClock(time.Time{})}
}

func newStore[T any](t *testing.T, fx *fixture, kind string, opts ...Option) *Store[T] {
	t.Helper()
	k, err := fx.reg.Kind(kind)
	if err != nil {
		t.Fatalf("Kind(%q) failed: %v", kind, err)
	}
	coll, err := fx.db.Collection(k.Collection)
	if err != nil {
		t.Fatalf("Collection(%q) failed: %v", k.Collection, err)
	}
	opts = append([]Option{WithClock(fx.clock)}, opts...)
	return New[T](k, coll, opts...)
}

func postPayload(w testutil.Wallet, body string) record.Payload {
	return record.Payload{
		"wallet":       w.Address,
		"version":      "1",
		"authorName":   "alice",
		"authorAvatar": "https://example.com/alice.png",
		"body":         body,
	}
}

func deletePayload(w testutil.Wallet, key record.Payload) record.Payload {
	p := key.Clone()
	p["wallet"] = w.Address
	p["version"] = "1"
	p["deleted"] = string(record.DeleteRequestMarker)
	return p
}

// signed signs p as a create for s's kind and returns p with its signature.
func signed[T any](t *testing.T, s *Store[T], w testutil.Wallet, p record.Payload) (record.Payload, string) {
	t.Helper()
	return signedFor(t, s, w, schema.OpCreate, p)
}

// signedFor signs p for op.
func signedFor[T any](t *testing.T, s *Store[T], w testutil.Wallet, op schema.Op, p record.Payload) (record.Payload, string) {
	t.Helper()
	return p, w.Sign(t, p, s.Kind().SignatureExclusionFor(op))
}

func kindOf(err error) string {
	var re *record.Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
