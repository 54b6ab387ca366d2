package record

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// ObjectID is a 12-byte, time-sortable record identifier:
// 4-byte big-endian unix seconds, 5 process-random bytes, 3-byte counter.
// Its 24-character hex form is the persisted `_id` and the tombstone value
// of a deleted record.
type ObjectID [12]byte

var (
	processUnique = newProcessUnique()
	objectIDSeq   atomic.Uint32
)

func newProcessUnique() [5]byte {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("record: cannot seed object id: %v", err))
	}
	return b
}

func init() {
	var b [4]byte
	_, _ = rand.Read(b[:])
	objectIDSeq.Store(binary.BigEndian.Uint32(b[:]))
}

// NewObjectID returns a fresh identifier stamped with t.
func NewObjectID(t time.Time) ObjectID {
	var id ObjectID
	binary.BigEndian.PutUint32(id[0:4], uint32(t.Unix()))
	copy(id[4:9], processUnique[:])
	seq := objectIDSeq.Add(1)
	id[9] = byte(seq >> 16)
	id[10] = byte(seq >> 8)
	id[11] = byte(seq)
	return id
}

// ObjectIDFromSeconds builds the identifier whose timestamp is secs and whose
// remaining bytes are zero. The tombstone markers are built this way.
func ObjectIDFromSeconds(secs uint32) ObjectID {
	var id ObjectID
	binary.BigEndian.PutUint32(id[0:4], secs)
	return id
}

// ParseObjectID decodes a 24-character hex identifier.
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID
	if len(s) != 24 {
		return id, fmt.Errorf("object id %q: want 24 hex characters, got %d", s, len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("object id %q: %w", s, err)
	}
	return id, nil
}

// Hex returns the lowercase 24-character form.
func (id ObjectID) Hex() string {
	return hex.EncodeToString(id[:])
}

func (id ObjectID) String() string {
	return id.Hex()
}

// Timestamp returns the creation second encoded in the identifier.
func (id ObjectID) Timestamp() time.Time {
	return time.Unix(int64(binary.BigEndian.Uint32(id[0:4])), 0).UTC()
}

// IsZero reports whether id is the all-zero identifier.
func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ObjectID) UnmarshalText(data []byte) error {
	parsed, err := ParseObjectID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
