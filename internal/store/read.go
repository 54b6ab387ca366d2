package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/signedstore/internal/record"
)

// FindOne returns the most recently created alive record matching f, or
// NOT_FOUND.
func (c *Collection) FindOne(ctx context.Context, f Filter) (rec record.Record, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("find_one", c.name, err, start) }()

	query, params, err := BuildSelect(c.name, f, record.ListOptions{PageNo: 1, PageSize: 1})
	if err != nil {
		return record.Record{}, err
	}
	rec, err = scanRecord(c.db.QueryRowContext(ctx, query, params...))
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, record.NewError(record.CodeNotFound, "", "no alive record in %s", c.name)
	}
	if err != nil {
		return record.Record{}, c.translate("find one", err)
	}
	return rec, nil
}

// Find returns one page of alive records matching f.
//
// Returns an empty slice (not nil) when nothing matches.
func (c *Collection) Find(ctx context.Context, f Filter, opts record.ListOptions) (recs []record.Record, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("find", c.name, err, start) }()

	query, params, err := BuildSelect(c.name, f, opts)
	if err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, c.translate("find", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, c.translate("scan", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, c.translate("iterate", err)
	}

	if recs == nil {
		recs = []record.Record{}
	}
	return recs, nil
}

// Count returns the number of alive records matching f.
func (c *Collection) Count(ctx context.Context, f Filter) (n int, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("count", c.name, err, start) }()

	query, params, err := BuildCount(c.name, f)
	if err != nil {
		return 0, err
	}
	if err := c.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, c.translate("count", err)
	}
	return n, nil
}

// Latest returns the newest createdAt or updatedAt among owner's alive
// records. ok is false when the owner has none.
func (c *Collection) Latest(ctx context.Context, owner string, by record.SortField) (ts time.Time, ok bool, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("latest", c.name, err, start) }()

	column := "created_at"
	if by == record.SortUpdatedAt {
		column = "updated_at"
	}

	var ms int64
	err = c.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE wallet = ? AND deleted = ?
		ORDER BY %s DESC
		LIMIT 1
	`, column, c.name, column), owner, string(record.AliveMarker)).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, c.translate("latest", err)
	}
	return fromMillis(ms), true, nil
}

// Lookup returns the record id whether alive or tombstoned.
func (c *Collection) Lookup(ctx context.Context, id string) (rec record.Record, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("lookup", c.name, err, start) }()

	rec, err = scanRecord(c.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, recordColumns, c.name), id))
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, record.NewError(record.CodeNotFound, "", "no record %s in %s", id, c.name)
	}
	if err != nil {
		return record.Record{}, c.translate("lookup", err)
	}
	return rec, nil
}
