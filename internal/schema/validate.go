package schema

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/signedstore/internal/digest"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/signature"
)

// Op is the mutation a payload is validated for.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// ParseOp parses a mutation name as printed by Op.String.
func ParseOp(s string) (Op, error) {
	for _, op := range []Op{OpCreate, OpUpdate, OpDelete} {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, record.NewError(record.CodeInvalidInput, "", "unknown operation %q", s)
}

// Validate checks p against the kind's field rules. Create enforces every
// required field; update and delete only need the natural key, and type
// check whatever else is present. A wallet field, when sent, must name owner.
func (k *Kind) Validate(op Op, p record.Payload, owner string) error {
	if len(p) == 0 {
		return record.NewError(record.CodeInvalidInput, k.Name, "empty payload")
	}
	if w, ok := p[record.FieldWallet]; ok {
		if s, _ := w.(string); s != owner {
			return record.NewError(record.CodeInvalidInput, k.Name, "wallet does not match signer")
		}
	}

	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if slices.Contains(record.ServerFields, key) {
			continue
		}
		if _, ok := k.Fields[key]; !ok {
			return record.NewError(record.CodeInvalidInput, k.Name, "unknown field %q", key)
		}
	}

	for _, name := range k.FieldNames() {
		f := k.Fields[name]
		v, present := p[name]
		if !present || v == nil {
			if (op == OpCreate && f.Required) || (op != OpCreate && slices.Contains(k.NaturalKey, name)) {
				return record.NewError(record.CodeInvalidInput, k.Name, "%s required", name)
			}
			continue
		}
		if f.Type == TypeCounter {
			// server-owned
			continue
		}
		if reason := f.check(v); reason != "" {
			return record.NewError(record.CodeInvalidInput, k.Name, "invalid %s: %s", name, reason)
		}
	}
	return nil
}

// check returns why v violates the field rule, or "".
func (f Field) check(v any) string {
	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return "must be a string"
		}
		return f.checkText(s)
	case TypeHash:
		if s, ok := v.(string); !ok || !digest.IsValidHash(s) {
			return "must be 0x followed by 64 lowercase hex characters"
		}
	case TypeAddress:
		if s, ok := v.(string); !ok || !signature.IsValidAddress(s) {
			return "must be a valid wallet address"
		}
	case TypeEnum:
		if s, ok := v.(string); !ok || !slices.Contains(f.Enum, s) {
			return "must be one of " + strings.Join(f.Enum, ", ")
		}
	case TypeStrings:
		items, ok := toStrings(v)
		if !ok {
			return "must be a list of strings"
		}
		for _, s := range items {
			if reason := f.checkText(s); reason != "" {
				return "each element " + reason
			}
		}
	default:
		return "unsupported field type " + string(f.Type)
	}
	return ""
}

func (f Field) checkText(s string) string {
	if s == "" {
		return "must not be empty"
	}
	if !norm.NFC.IsNormalString(s) {
		return "must be NFC normalized"
	}
	if f.Limit > 0 && utf16Len(s) >= f.Limit {
		return "must be shorter than " + strconv.Itoa(f.Limit) + " characters"
	}
	return ""
}

func toStrings(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// utf16Len is the length a JavaScript client sees for s.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
			continue
		}
		n++
	}
	return n
}
