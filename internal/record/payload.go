package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Wire names shared by every entity kind.
const (
	FieldID        = "_id"
	FieldWallet    = "wallet"
	FieldSig       = "sig"
	FieldHash      = "hash"
	FieldDeleted   = "deleted"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldVersion   = "version"
	FieldDocVer    = "__v"
)

// ServerFields are the fields a client may send but that never reach the
// stored attribute set: they are columns or server-assigned.
var ServerFields = []string{
	FieldID, FieldWallet, FieldSig, FieldHash, FieldDeleted,
	FieldCreatedAt, FieldUpdatedAt, FieldDocVer,
}

// Payload is the client-supplied attribute set of a mutation.
type Payload map[string]any

// ParsePayload decodes a JSON object. Numbers stay json.Number so that the
// canonical form reproduces the client's digits.
func ParsePayload(data []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parse payload: trailing data after object")
	}
	if p == nil {
		return nil, fmt.Errorf("parse payload: not an object")
	}
	return p, nil
}

// Clone returns a shallow copy.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Without returns a copy with keys removed.
func (p Payload) Without(keys ...string) Payload {
	out := p.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// String returns the value at key if it is a string.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether key is present, even with a null value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}
