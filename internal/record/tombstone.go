package record

// Tombstone is the persisted `deleted` value of a record.
type Tombstone string

// The two sentinel markers are bit-for-bit stable wire values.
const (
	// AliveMarker is the ObjectID at epoch second 0. Every live record carries it.
	AliveMarker Tombstone = "000000000000000000000000"

	// DeleteRequestMarker is the ObjectID at epoch second 1. Clients send it to
	// request a soft delete; it is never persisted.
	DeleteRequestMarker Tombstone = "000000010000000000000000"
)

// TombstoneFor returns the tombstone a deleted record stores: its own id.
func TombstoneFor(id ObjectID) Tombstone {
	return Tombstone(id.Hex())
}

// IsAlive reports whether t is the alive marker.
func (t Tombstone) IsAlive() bool {
	return t == AliveMarker
}

// IsDeleteRequest reports whether t is the client delete-request marker.
func (t Tombstone) IsDeleteRequest() bool {
	return t == DeleteRequestMarker
}

func (t Tombstone) String() string {
	return string(t)
}
