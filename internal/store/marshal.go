package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/signedstore/internal/canon"
	"github.com/roach88/signedstore/internal/record"
)

// marshalAttributes converts a payload to canonical JSON TEXT for storage.
func marshalAttributes(attrs record.Payload) (string, error) {
	if attrs == nil {
		return "{}", nil
	}
	data, err := canon.Marshal(map[string]any(attrs))
	if err != nil {
		return "", fmt.Errorf("marshal attributes: %w", err)
	}
	return string(data), nil
}

// unmarshalAttributes parses stored attributes. Numbers stay json.Number to
// avoid float64 precision loss.
func unmarshalAttributes(data string) (record.Payload, error) {
	if data == "" || data == "{}" {
		return record.Payload{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var attrs record.Payload
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return attrs, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row selected with recordColumns.
func scanRecord(row scanner) (record.Record, error) {
	var (
		rec       record.Record
		id        string
		deleted   string
		attrs     string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&id, &rec.Owner, &rec.NaturalKey, &deleted, &rec.ContentHash, &rec.Signature, &attrs, &createdAt, &updatedAt); err != nil {
		return record.Record{}, err
	}

	parsed, err := record.ParseObjectID(id)
	if err != nil {
		return record.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.ID = parsed
	rec.Tombstone = record.Tombstone(deleted)
	if rec.Attributes, err = unmarshalAttributes(attrs); err != nil {
		return record.Record{}, fmt.Errorf("scan record %s: %w", id, err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
