package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/signedstore/internal/record"
)

// Collection is one entity table.
type Collection struct {
	name    string
	db      *sql.DB
	metrics Metrics
}

// Name returns the table name.
func (c *Collection) Name() string {
	return c.name
}

// translate maps driver errors onto the record taxonomy. Unique and primary
// key violations become DUPLICATE_KEY; everything else is STORAGE_UNAVAILABLE.
func (c *Collection) translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *record.Error
	if errors.As(err, &re) {
		return err
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return record.WrapError(record.CodeDuplicateKey, "", fmt.Sprintf("%s %s", op, c.name), err)
		}
	}
	return record.WrapError(record.CodeStorageUnavailable, "", fmt.Sprintf("%s %s", op, c.name), err)
}
