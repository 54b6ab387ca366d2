// Package canon produces the signature-stable form of a payload: objects with
// keys in UTF-16 code unit order, serialized as compact JSON exactly the way
// JavaScript's JSON.stringify prints them. Browser wallets sign that text, so
// the byte layout here is part of the wire contract.
package canon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrEmpty is returned by Encode for a nil or empty field set.
var ErrEmpty = errors.New("canon: empty payload")

// Member is one key/value pair of a canonical object.
type Member struct {
	Key   string
	Value any
}

// Object is a mapping whose members are in canonical key order.
// Canonicalize returns Object for every mapping node.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in canonical order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// MarshalJSON implements json.Marshaler with the canonical text form.
func (o Object) MarshalJSON() ([]byte, error) {
	return Marshal(o)
}

// Canonicalize returns v with every mapping node replaced by an Object whose
// keys are sorted by UTF-16 code units. Sequences keep their element order and
// scalars pass through. Values it cannot traverse are returned unchanged, so
// Canonicalize never fails; Marshal reports what cannot be serialized.
func Canonicalize(v any) any {
	switch val := v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case Object:
		m := make(map[string]any, len(val))
		for _, member := range val {
			m[member.Key] = member.Value
		}
		return canonicalObject(m)
	case map[string]any:
		return canonicalObject(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Canonicalize(elem)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return canonicalObject(m)
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Canonicalize(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

func canonicalObject(m map[string]any) Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareKeys)

	obj := make(Object, len(keys))
	for i, k := range keys {
		obj[i] = Member{Key: k, Value: Canonicalize(m[k])}
	}
	return obj
}

// CompareKeys orders strings by UTF-16 code units, the order JavaScript's
// default Array.prototype.sort produces. Go's native string comparison is by
// UTF-8 bytes and disagrees for characters above U+FFFF.
func CompareKeys(a, b string) int {
	if isASCII(a) && isASCII(b) {
		return strings.Compare(a, b)
	}
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Marshal serializes the canonical form of v as compact JSON: no insignificant
// whitespace, no HTML escaping, U+2028/U+2029 left literal. Two logically
// equal trees produce identical bytes regardless of insertion order.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, Canonicalize(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		writeString(buf, val)
	case json.Number:
		s, err := formatNumber(val)
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float32:
		buf.WriteString(formatFloat(float64(val)))
	case float64:
		buf.WriteString(formatFloat(val))
	case Object:
		buf.WriteByte('{')
		for i, m := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, m.Key)
			buf.WriteByte(':')
			if err := writeValue(buf, m.Value); err != nil {
				return fmt.Errorf("key %q: %w", m.Key, err)
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
	default:
		return writeForeign(buf, v)
	}
	return nil
}

// writeForeign serializes values canon does not model (time.Time, structs,
// pointers) through their encoding/json form, then canonicalizes the result.
func writeForeign(buf *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("unsupported type for canonical JSON: %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return fmt.Errorf("re-decode %T: %w", v, err)
	}
	return writeValue(buf, Canonicalize(decoded))
}

// writeString quotes s the way JSON.stringify does: only the quote, the
// backslash and control characters are escaped. Invalid UTF-8 bytes become
// U+FFFD.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

func formatNumber(n json.Number) (string, error) {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	f, err := n.Float64()
	if err != nil {
		return "", fmt.Errorf("invalid number %q: %w", string(n), err)
	}
	return formatFloat(f), nil
}

// formatFloat mirrors Number.prototype.toString: plain decimal notation for
// magnitudes in [1e-6, 1e21), shortest exponent notation otherwise.
// Non-finite values print as null.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}
