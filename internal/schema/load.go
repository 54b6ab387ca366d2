package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/signedstore/internal/record"
)

//go:embed kinds.cue
var embeddedKinds []byte

// LoadError reports a malformed kinds document.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Registry holds the loaded kinds by name.
type Registry struct {
	kinds map[string]*Kind
}

// Load parses the embedded kinds document.
func Load() (*Registry, error) {
	return Parse("kinds.cue", embeddedKinds)
}

// LoadFile parses a kinds document from disk.
func LoadFile(path string) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kinds file: %w", err)
	}
	return Parse(path, src)
}

// Parse compiles a CUE kinds document. The document must define a top-level
// "kinds" struct of #Kind values.
func Parse(filename string, src []byte) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	kindsVal := v.LookupPath(cue.ParsePath("kinds"))
	if !kindsVal.Exists() {
		return nil, &LoadError{Field: "kinds", Message: "kinds is required", Pos: v.Pos()}
	}
	iter, err := kindsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	reg := &Registry{kinds: make(map[string]*Kind)}
	collections := make(map[string]string)
	for iter.Next() {
		k, err := parseKind(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		if err := k.check(); err != nil {
			return nil, &LoadError{Field: "kinds." + k.Name, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		if other, dup := collections[k.Collection]; dup {
			return nil, &LoadError{
				Field:   "kinds." + k.Name,
				Message: fmt.Sprintf("collection %q already used by %s", k.Collection, other),
				Pos:     iter.Value().Pos(),
			}
		}
		collections[k.Collection] = k.Name
		reg.kinds[k.Name] = k
	}
	if len(reg.kinds) == 0 {
		return nil, &LoadError{Field: "kinds", Message: "at least one kind is required", Pos: kindsVal.Pos()}
	}
	return reg, nil
}

// Kind returns the kind named name.
func (r *Registry) Kind(name string) (*Kind, error) {
	k, ok := r.kinds[name]
	if !ok {
		return nil, record.NewError(record.CodeInvalidInput, name, "unknown kind")
	}
	return k, nil
}

// Names returns the kind names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OverrideThrottle replaces the windows of every kind for each non-nil
// argument.
func (r *Registry) OverrideThrottle(create, update, del *time.Duration) {
	for _, k := range r.kinds {
		if create != nil {
			k.Throttle.Create = *create
		}
		if update != nil {
			k.Throttle.Update = *update
		}
		if del != nil {
			k.Throttle.Delete = *del
		}
	}
}

func parseKind(name string, v cue.Value) (*Kind, error) {
	k := &Kind{
		Name:    name,
		Fields:  make(map[string]Field),
		Finders: make(map[string]Finder),
	}

	var err error
	if k.Collection, err = stringAt(v, "collection"); err != nil {
		return nil, err
	}
	if k.NaturalKey, err = stringsAt(v, "naturalKey"); err != nil {
		return nil, err
	}
	if k.Updatable, err = stringsAt(v, "updatable"); err != nil {
		return nil, err
	}
	if k.Counters, err = stringsAt(v, "counters"); err != nil {
		return nil, err
	}

	fieldsIter, err := v.LookupPath(cue.ParsePath("fields")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for fieldsIter.Next() {
		f, err := parseField(fieldsIter.Label(), fieldsIter.Value())
		if err != nil {
			return nil, err
		}
		k.Fields[f.Name] = f
	}

	findersIter, err := v.LookupPath(cue.ParsePath("finders")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for findersIter.Next() {
		fv := findersIter.Value()
		keys, err := stringsAt(fv, "keys")
		if err != nil {
			return nil, err
		}
		list, err := boolAt(fv, "list")
		if err != nil {
			return nil, err
		}
		k.Finders[findersIter.Label()] = Finder{Name: findersIter.Label(), Keys: keys, List: list}
	}

	windows := []struct {
		path string
		dst  *time.Duration
	}{
		{"throttle.create", &k.Throttle.Create},
		{"throttle.update", &k.Throttle.Update},
		{"throttle.delete", &k.Throttle.Delete},
	}
	for _, w := range windows {
		s, err := stringAt(v, w.path)
		if err != nil {
			return nil, err
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, &LoadError{Field: w.path, Message: err.Error(), Pos: v.Pos()}
		}
		*w.dst = d
	}
	return k, nil
}

func parseField(name string, v cue.Value) (Field, error) {
	f := Field{Name: name}
	typ, err := stringAt(v, "type")
	if err != nil {
		return f, err
	}
	f.Type = FieldType(typ)
	if f.Required, err = boolAt(v, "required"); err != nil {
		return f, err
	}
	limit, err := intAt(v, "limit")
	if err != nil {
		return f, err
	}
	f.Limit = int(limit)
	if f.Enum, err = stringsAt(v, "enum"); err != nil {
		return f, err
	}
	if f.Type == TypeEnum && len(f.Enum) == 0 {
		return f, &LoadError{Field: name, Message: "enum field needs at least one value", Pos: v.Pos()}
	}
	return f, nil
}

// lookup resolves path, selecting the default of a disjunction.
func lookup(v cue.Value, path string) (cue.Value, bool) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return fv, false
	}
	d, _ := fv.Default()
	return d, true
}

func stringAt(v cue.Value, path string) (string, error) {
	fv, ok := lookup(v, path)
	if !ok {
		return "", &LoadError{Field: path, Message: path + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func boolAt(v cue.Value, path string) (bool, error) {
	fv, ok := lookup(v, path)
	if !ok {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func intAt(v cue.Value, path string) (int64, error) {
	fv, ok := lookup(v, path)
	if !ok {
		return 0, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

func stringsAt(v cue.Value, path string) ([]string, error) {
	fv, ok := lookup(v, path)
	if !ok {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
