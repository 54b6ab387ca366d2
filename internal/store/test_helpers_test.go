package store

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roach88/signedstore/internal/record"
)

// createTestStore opens a fresh database under t.TempDir.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestCollection(t *testing.T, name string) *Collection {
	t.Helper()
	c, err := createTestStore(t).Collection(name)
	if err != nil {
		t.Fatalf("Collection(%q) failed: %v", name, err)
	}
	return c
}

// testHash returns a well-formed content hash built from a digit.
func testHash(d string) string {
	return "0x" + strings.Repeat(d, 64)
}

// createTestRecord creates an alive record with minimal fields.
func createTestRecord(owner, naturalKey, hash string, at time.Time) record.Record {
	return record.Record{
		ID:          record.NewObjectID(at),
		Owner:       owner,
		Signature:   "0xsig",
		ContentHash: hash,
		Tombstone:   record.AliveMarker,
		NaturalKey:  naturalKey,
		Attributes:  record.Payload{"version": "1", "statisticView": 0},
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}
