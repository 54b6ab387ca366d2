// Package schema declares the entity kinds served by the mutation core.
// Kinds are data: field rules, natural keys, update whitelists, counters,
// finders and throttle windows all come from kinds.cue.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/roach88/signedstore/internal/canon"
	"github.com/roach88/signedstore/internal/digest"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/signature"
)

// FieldType is the validation rule family of a field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeHash    FieldType = "hash"
	TypeAddress FieldType = "address"
	TypeEnum    FieldType = "enum"
	TypeStrings FieldType = "strings"
	TypeCounter FieldType = "counter"
)

// Finder key names with column meaning. Other keys match attributes.
const (
	KeyWallet = record.FieldWallet
	KeyHash   = record.FieldHash
	KeyID     = record.FieldID
)

// Field is one declared attribute.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	// Limit is an exclusive upper bound on string length in UTF-16 units.
	// Zero means unbounded.
	Limit int
	Enum  []string
}

// Finder is a named, parameterized lookup.
type Finder struct {
	Name string
	Keys []string
	List bool
}

// Global reports whether the finder crosses owners.
func (f Finder) Global() bool {
	return !slices.Contains(f.Keys, KeyWallet)
}

// Params returns the keys the caller must supply as parameters.
func (f Finder) Params() []string {
	var params []string
	for _, k := range f.Keys {
		if k != KeyWallet {
			params = append(params, k)
		}
	}
	return params
}

// Windows are the minimum intervals between an owner's mutations.
type Windows struct {
	Create time.Duration
	Update time.Duration
	Delete time.Duration
}

// Kind is one entity kind.
type Kind struct {
	Name       string
	Collection string
	NaturalKey []string
	Updatable  []string
	Counters   []string
	Fields     map[string]Field
	Finders    map[string]Finder
	Throttle   Windows
}

// UpdateBanned reports whether the kind is create/delete only.
func (k *Kind) UpdateBanned() bool {
	return len(k.Updatable) == 0
}

// IsCounter reports whether name is a declared counter.
func (k *Kind) IsCounter(name string) bool {
	return slices.Contains(k.Counters, name)
}

// IsUpdatable reports whether name is on the update whitelist.
func (k *Kind) IsUpdatable(name string) bool {
	return slices.Contains(k.Updatable, name)
}

// SignatureExclusion is the set of fields removed before verifying a create
// signature. Kinds with counters exclude every statistic field on every
// operation, since the server changes them without a fresh signature.
func (k *Kind) SignatureExclusion() canon.Exclusion {
	if len(k.Counters) == 0 {
		return signature.Exclusion
	}
	return signature.Exclusion.With("statistic*")
}

// SignatureExclusionFor is the signature exclusion of op. The server computes
// hash at create, so only create excludes it when hash is the natural key;
// update and delete signatures must name the record they target.
func (k *Kind) SignatureExclusionFor(op Op) canon.Exclusion {
	ex := k.SignatureExclusion()
	if op != OpCreate && slices.Contains(k.NaturalKey, record.FieldHash) {
		return ex.Without(record.FieldHash)
	}
	return ex
}

// DigestExclusion is the set of fields removed before hashing.
func (k *Kind) DigestExclusion() canon.Exclusion {
	return digest.Exclusion
}

// Finder returns the finder named by.
func (k *Kind) Finder(by string) (Finder, error) {
	f, ok := k.Finders[by]
	if !ok {
		return Finder{}, record.NewError(record.CodeInvalidInput, k.Name, "unknown finder %q", by)
	}
	return f, nil
}

// FinderNames returns the finder names in sorted order.
func (k *Kind) FinderNames() []string {
	names := make([]string, 0, len(k.Finders))
	for name := range k.Finders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldNames returns the declared field names in sorted order.
func (k *Kind) FieldNames() []string {
	names := make([]string, 0, len(k.Fields))
	for name := range k.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NaturalKeyOf returns the canonical JSON array of the natural key values of
// p. A "hash" component is taken from contentHash when set (create) and from
// the payload otherwise (update, delete).
func (k *Kind) NaturalKeyOf(p record.Payload, contentHash string) (string, error) {
	values := make([]any, 0, len(k.NaturalKey))
	for _, name := range k.NaturalKey {
		if name == KeyHash {
			h := contentHash
			if h == "" {
				h, _ = p.String(record.FieldHash)
			}
			if !digest.IsValidHash(h) {
				return "", record.NewError(record.CodeInvalidInput, k.Name, "invalid hash %q", h)
			}
			values = append(values, h)
			continue
		}
		s, ok := p.String(name)
		if !ok || s == "" {
			return "", record.NewError(record.CodeInvalidInput, k.Name, "%s required", name)
		}
		values = append(values, s)
	}
	data, err := canon.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode natural key: %w", err)
	}
	return string(data), nil
}

// Attributes returns the stored attribute set for a new record: the payload
// without server fields, with every counter reset to zero.
func (k *Kind) Attributes(p record.Payload) record.Payload {
	attrs := p.Without(record.ServerFields...)
	for _, c := range k.Counters {
		attrs[c] = 0
	}
	return attrs
}

// check validates the kind declaration itself.
func (k *Kind) check() error {
	if k.Collection == "" {
		return fmt.Errorf("kind %s: collection required", k.Name)
	}
	if len(k.NaturalKey) == 0 {
		return fmt.Errorf("kind %s: natural key required", k.Name)
	}
	for _, name := range k.NaturalKey {
		if name == KeyHash {
			continue
		}
		f, ok := k.Fields[name]
		if !ok || !f.Required {
			return fmt.Errorf("kind %s: natural key field %q must be a required field", k.Name, name)
		}
	}
	for _, name := range k.Updatable {
		if _, ok := k.Fields[name]; !ok {
			return fmt.Errorf("kind %s: updatable field %q not declared", k.Name, name)
		}
		if slices.Contains(k.NaturalKey, name) {
			return fmt.Errorf("kind %s: natural key field %q cannot be updatable", k.Name, name)
		}
	}
	for _, name := range k.Counters {
		if f, ok := k.Fields[name]; !ok || f.Type != TypeCounter {
			return fmt.Errorf("kind %s: counter %q must be a counter field", k.Name, name)
		}
	}
	for _, f := range k.Finders {
		if len(f.Keys) == 0 {
			return fmt.Errorf("kind %s: finder %q has no keys", k.Name, f.Name)
		}
		for _, key := range f.Keys {
			if key == KeyWallet || key == KeyHash || key == KeyID {
				continue
			}
			if _, ok := k.Fields[key]; !ok {
				return fmt.Errorf("kind %s: finder %q key %q not declared", k.Name, f.Name, key)
			}
		}
	}
	for _, d := range []time.Duration{k.Throttle.Create, k.Throttle.Update, k.Throttle.Delete} {
		if d < 0 {
			return fmt.Errorf("kind %s: negative throttle window", k.Name)
		}
	}
	return nil
}
