package types

import "context"

// SnapshotStore persists the last known assignee set per tracked item.
//
// Implementations must satisfy:
//   - Load treats a missing, corrupted, or unreadable snapshot as absent
//     (nil, nil); corruption is reported through EmitWarning on ctx
//   - Load only returns an error for context cancellation
//   - Save overwrites the previous snapshot and is durable before returning
//   - Saves for distinct keys may run concurrently; saves for the same key are serialized
//
// Implementations: store.File, store.SQL, store.KV, store.Memory.
type SnapshotStore interface {
	// Load returns the snapshot stored for ref, or nil when absent.
	Load(ctx context.Context, ref ItemRef) (*Snapshot, error)

	// Save durably replaces the snapshot for snap.Ref().
	Save(ctx context.Context, snap Snapshot) error
}
