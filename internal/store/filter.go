package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/signedstore/internal/record"
)

// Filter selects alive records. Empty fields do not constrain.
// Alive scoping is unconditional: there is no way to read a tombstoned row.
type Filter struct {
	ID          string
	Owner       string
	ContentHash string
	NaturalKey  string
	// Attributes match top-level attribute values by string equality.
	Attributes map[string]string
}

var attributeName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const recordColumns = "id, wallet, natural_key, deleted, hash, sig, attributes, created_at, updated_at"

// where compiles the filter to a WHERE clause and its parameters.
// All values are parameterized; attribute names are validated and passed as
// JSON path parameters.
func (f Filter) where() (string, []any, error) {
	clauses := []string{"deleted = ?"}
	params := []any{string(record.AliveMarker)}

	if f.ID != "" {
		clauses = append(clauses, "id = ?")
		params = append(params, f.ID)
	}
	if f.Owner != "" {
		clauses = append(clauses, "wallet = ?")
		params = append(params, f.Owner)
	}
	if f.ContentHash != "" {
		clauses = append(clauses, "hash = ?")
		params = append(params, f.ContentHash)
	}
	if f.NaturalKey != "" {
		clauses = append(clauses, "natural_key = ?")
		params = append(params, f.NaturalKey)
	}

	// Sort keys for deterministic SQL.
	names := make([]string, 0, len(f.Attributes))
	for name := range f.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !attributeName.MatchString(name) {
			return "", nil, record.NewError(record.CodeInvalidInput, "", "invalid attribute name %q", name)
		}
		clauses = append(clauses, "json_extract(attributes, ?) = ?")
		params = append(params, "$."+name, f.Attributes[name])
	}

	return strings.Join(clauses, " AND "), params, nil
}

// BuildSelect compiles a page query over table.
// MANDATORY: every query orders by the sort timestamp then id so pages are
// stable for records sharing a millisecond.
func BuildSelect(table string, f Filter, opts record.ListOptions) (string, []any, error) {
	where, params, err := f.where()
	if err != nil {
		return "", nil, err
	}
	if opts.PageSize <= 0 {
		opts.PageSize = record.DefaultPageSize
	}
	if opts.PageNo < 1 {
		opts.PageNo = record.DefaultPageNo
	}

	column := "created_at"
	if opts.Sort == record.SortUpdatedAt {
		column = "updated_at"
	}
	dir := "DESC"
	if opts.Order == record.Ascending {
		dir = "ASC"
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s %s, id COLLATE BINARY %s LIMIT ? OFFSET ?",
		recordColumns, table, where, column, dir, dir)
	params = append(params, opts.PageSize, opts.Offset())
	return query, params, nil
}

// BuildCount compiles the total-count query matching BuildSelect.
func BuildCount(table string, f Filter) (string, []any, error) {
	where, params, err := f.where()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where), params, nil
}
