package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the persisted unit for any entity kind.
type Record struct {
	ID          ObjectID
	Owner       string
	Signature   string
	ContentHash string
	Tombstone   Tombstone
	NaturalKey  string
	Attributes  Payload
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Alive reports whether the record has not been soft-deleted.
func (r Record) Alive() bool {
	return r.Tombstone.IsAlive()
}

// Document returns the wire form of the record: its attributes merged with
// the server-owned fields under their persisted names.
func (r Record) Document() Payload {
	doc := make(Payload, len(r.Attributes)+7)
	for k, v := range r.Attributes {
		doc[k] = v
	}
	doc[FieldID] = r.ID.Hex()
	doc[FieldWallet] = r.Owner
	doc[FieldSig] = r.Signature
	doc[FieldHash] = r.ContentHash
	doc[FieldDeleted] = string(r.Tombstone)
	doc[FieldCreatedAt] = r.CreatedAt.UTC()
	doc[FieldUpdatedAt] = r.UpdatedAt.UTC()
	return doc
}

// Meta is the typed view of the fields shared by every entity kind.
// Entity structs embed it.
type Meta struct {
	ID        string    `json:"_id"`
	Version   string    `json:"version"`
	Wallet    string    `json:"wallet"`
	Sig       string    `json:"sig"`
	Hash      string    `json:"hash"`
	Deleted   Tombstone `json:"deleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Decode converts a record into the typed entity T through its document form.
func Decode[T any](r Record) (T, error) {
	var out T
	data, err := json.Marshal(r.Document())
	if err != nil {
		return out, fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode record %s into %T: %w", r.ID, out, err)
	}
	return out, nil
}
