package canon

import (
	"slices"
	"strings"
)

// Exclusion names top-level fields dropped before encoding. An entry ending
// in '*' matches every key with that prefix.
type Exclusion []string

// Excludes reports whether key is dropped.
func (e Exclusion) Excludes(key string) bool {
	for _, pattern := range e {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(key, prefix) {
				return true
			}
			continue
		}
		if key == pattern {
			return true
		}
	}
	return false
}

// With returns a new exclusion holding e followed by more.
func (e Exclusion) With(more ...string) Exclusion {
	out := make(Exclusion, 0, len(e)+len(more))
	out = append(out, e...)
	return append(out, more...)
}

// Without returns a new exclusion holding the entries of e other than keys.
func (e Exclusion) Without(keys ...string) Exclusion {
	out := make(Exclusion, 0, len(e))
	for _, pattern := range e {
		if !slices.Contains(keys, pattern) {
			out = append(out, pattern)
		}
	}
	return out
}

// Strip returns a copy of fields without the excluded keys.
func (e Exclusion) Strip(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if !e.Excludes(k) {
			out[k] = v
		}
	}
	return out
}

// Encode strips the excluded fields and returns the canonical JSON of the
// rest. It is the message both the signer and the digester operate on.
func Encode(fields map[string]any, exclude Exclusion) ([]byte, error) {
	if len(fields) == 0 {
		return nil, ErrEmpty
	}
	return Marshal(exclude.Strip(fields))
}
