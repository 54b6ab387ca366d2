// Package store provides SQLite-backed document collections for signed
// records, one table per entity kind.
//
// # Invariants
//
// Owner uniqueness
//   - UNIQUE(deleted, wallet, natural_key)
//   - An alive record stores the alive marker; a deleted one stores its own
//     id, so only alive records collide
//
// Alive content hash
//   - partial UNIQUE(hash) WHERE deleted is the alive marker
//
// Deterministic listing
//   - every list query orders by a timestamp then id COLLATE BINARY
//
// No deletes
//   - rows are never removed; soft delete rewrites the deleted column
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5 seconds for locks
//   - Single connection: one writer, read-after-write on the same path
//
// Schema migrations are embedded and applied by Open through golang-migrate.
package store
