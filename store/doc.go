// Package store implements types.SnapshotStore backends.
//
// Backends:
//   - File: one YAML document per item under a directory (the default)
//   - SQL: a table in SQLite (modernc.org/sqlite) or PostgreSQL (pgx)
//   - KV: a NATS JetStream key-value bucket
//   - Memory: an in-process map for dry runs and tests
//
// Every backend treats a missing, corrupted or unreadable snapshot as absent
// and reports the condition through types.EmitWarning on the Load context.
// Saves are serialized per key and rejected with ErrStaleSnapshot when the
// stored snapshot was observed later than the one being written.
//
// Open picks a backend from a URI:
//
//	st, err := store.Open(ctx, "sqlite:///var/lib/gh-chk/snapshots.db")
//	if err != nil { /* handle */ }
//	defer st.Close()
package store
