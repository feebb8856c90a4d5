package store

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/yasuyuky/gh-chk/types"
)

// Memory keeps snapshots in process memory.
type Memory struct {
	snaps *xsync.Map[types.ItemRef, types.Snapshot]
	locks keyLocks
}

var _ types.SnapshotStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		snaps: xsync.NewMap[types.ItemRef, types.Snapshot](),
		locks: newKeyLocks(),
	}
}

// Load returns a copy of the snapshot of ref, or nil when absent.
func (m *Memory) Load(ctx context.Context, ref types.ItemRef) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, ok := m.snaps.Load(ref)
	if !ok {
		return nil, nil
	}
	snap.Assignees = snap.Assignees.Clone()

	return &snap, nil
}

// Save stores a copy of snap.
func (m *Memory) Save(ctx context.Context, snap types.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ref := snap.Ref()
	unlock := m.locks.lock(ref.Path())
	defer unlock()

	if current, ok := m.snaps.Load(ref); ok && current.ObservedAt.After(snap.ObservedAt) {
		return fmt.Errorf("%w: %s", ErrStaleSnapshot, ref)
	}

	snap.Assignees = snap.Assignees.Clone()
	snap.ObservedAt = snap.ObservedAt.UTC()
	m.snaps.Store(ref, snap)

	return nil
}

// Len returns the number of stored snapshots.
func (m *Memory) Len() int {
	n := 0
	m.snaps.Range(func(_ types.ItemRef, _ types.Snapshot) bool {
		n++
		return true
	})

	return n
}

// Close releases nothing; it exists so Memory satisfies Backend.
func (m *Memory) Close() error {
	return nil
}
