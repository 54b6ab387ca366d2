package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/signedstore/internal/record"
)

// Insert stores a new record. The unique indexes reject a second alive record
// for the same owner and natural key, or for the same content hash, with
// DUPLICATE_KEY. A failed insert leaves nothing behind.
func (c *Collection) Insert(ctx context.Context, rec record.Record) (err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("insert", c.name, err, start) }()

	attrs, err := marshalAttributes(rec.Attributes)
	if err != nil {
		return record.WrapError(record.CodeInvalidInput, "", "insert "+c.name, err)
	}

	_, err = c.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.name, recordColumns),
		rec.ID.Hex(),
		rec.Owner,
		rec.NaturalKey,
		string(rec.Tombstone),
		rec.ContentHash,
		rec.Signature,
		attrs,
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
	)
	return c.translate("insert", err)
}

// Update replaces the attributes and signature of the alive record id and
// stamps updatedAt. Returns NOT_FOUND when id is not alive.
func (c *Collection) Update(ctx context.Context, id record.ObjectID, attrs record.Payload, sig string, updatedAt time.Time) (rec record.Record, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("update", c.name, err, start) }()

	data, err := marshalAttributes(attrs)
	if err != nil {
		return record.Record{}, record.WrapError(record.CodeInvalidInput, "", "update "+c.name, err)
	}

	row := c.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE %s
		SET attributes = ?, sig = ?, updated_at = ?
		WHERE id = ? AND deleted = ?
		RETURNING %s
	`, c.name, recordColumns),
		data, sig, toMillis(updatedAt), id.Hex(), string(record.AliveMarker),
	)
	rec, err = scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, record.NewError(record.CodeNotFound, "", "no alive record %s in %s", id, c.name)
	}
	if err != nil {
		return record.Record{}, c.translate("update", err)
	}
	return rec, nil
}

// Tombstone soft-deletes the alive record id by storing its own id in the
// deleted column. Returns the number of rows changed: 1, or 0 when id was
// not alive.
func (c *Collection) Tombstone(ctx context.Context, id record.ObjectID, at time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("tombstone", c.name, err, start) }()

	res, err := c.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s
		SET deleted = ?, updated_at = ?
		WHERE id = ? AND deleted = ?
	`, c.name),
		string(record.TombstoneFor(id)), toMillis(at), id.Hex(), string(record.AliveMarker),
	)
	if err != nil {
		return 0, c.translate("tombstone", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, c.translate("tombstone", err)
	}
	return n, nil
}

// Increment adds delta to the numeric attribute field of the alive record
// holding contentHash, clamping at zero. The read, clamp and write happen in
// one statement, so concurrent increments never lose updates. updated_at is
// left alone.
func (c *Collection) Increment(ctx context.Context, contentHash, field string, delta int64) (rec record.Record, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("increment", c.name, err, start) }()

	if !attributeName.MatchString(field) {
		return record.Record{}, record.NewError(record.CodeInvalidInput, "", "invalid counter name %q", field)
	}
	path := "$." + field

	row := c.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE %s
		SET attributes = json_set(attributes, ?, max(0, coalesce(json_extract(attributes, ?), 0) + ?))
		WHERE hash = ? AND deleted = ?
		RETURNING %s
	`, c.name, recordColumns),
		path, path, delta, contentHash, string(record.AliveMarker),
	)
	rec, err = scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, record.NewError(record.CodeNotFound, "", "no alive record with hash %s in %s", contentHash, c.name)
	}
	if err != nil {
		return record.Record{}, c.translate("increment", err)
	}
	return rec, nil
}
