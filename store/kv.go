package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/yasuyuky/gh-chk/internal/kvutil"
	"github.com/yasuyuky/gh-chk/internal/natsutil"
	"github.com/yasuyuky/gh-chk/types"
)

const maxKVSaveAttempts = 10

// KV stores snapshots as JSON values in a NATS JetStream key-value bucket.
//
// Saves use the entry revision as a compare-and-set token, so concurrent
// writers in different processes are serialized by the server.
type KV struct {
	kv     jetstream.KeyValue
	logger types.Logger
	closer func()
}

var _ types.SnapshotStore = (*KV)(nil)

// NewKV creates or opens the snapshot bucket and returns a store over it.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - js: JetStream context
//   - bucket: Bucket name (kvutil.DefaultSnapshotBucket if empty)
//   - opts: Optional configuration
//
// Returns:
//   - *KV: Ready store
//   - error: Non-nil when the bucket cannot be created or opened
func NewKV(ctx context.Context, js jetstream.JetStream, bucket string, opts ...Option) (*KV, error) {
	kv, err := kvutil.EnsureBucket(ctx, js, kvutil.SnapshotBucketConfig(bucket, jetstream.FileStorage), 3)
	if err != nil {
		return nil, fmt.Errorf("kv store: %w", err)
	}

	return NewKVFromBucket(kv, opts...), nil
}

// NewKVFromBucket returns a store over an already opened bucket.
func NewKVFromBucket(kv jetstream.KeyValue, opts ...Option) *KV {
	o := applyOptions(opts)

	return &KV{kv: kv, logger: o.logger}
}

// Key returns the bucket key of ref: owner.repo.number, with '.' and '_' in
// the repository name escaped so every key maps back to exactly one item.
func Key(ref types.ItemRef) string {
	repo := strings.NewReplacer("_", "_5F", ".", "_2E").Replace(ref.Repo)

	return ref.Owner + "." + repo + "." + strconv.Itoa(ref.Number)
}

// Load returns the snapshot of ref, or nil when absent or unreadable.
func (k *KV) Load(ctx context.Context, ref types.ItemRef) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := k.kv.Get(ctx, Key(ref))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		if natsutil.IsConnectivityError(err) {
			err = fmt.Errorf("nats unreachable: %w", err)
		}
		return treatAsAbsent(ctx, k.logger, "kv", ref, err)
	}

	snap, err := decodeJSON(entry.Value(), ref)
	if err != nil {
		return treatAsAbsent(ctx, k.logger, "kv", ref, err)
	}

	return snap, nil
}

// Save writes the snapshot of snap's item with compare-and-set on the revision.
func (k *KV) Save(ctx context.Context, snap types.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	ref := snap.Ref()
	key := Key(ref)
	data, err := encodeJSON(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", ref, err)
	}

	writeCtx, cancel := writeContext(ctx)
	defer cancel()

	for attempt := 1; ; attempt++ {
		// Cancellation is honored only between attempts, when nothing is committed.
		if err := ctx.Err(); err != nil {
			return err
		}

		err := k.trySave(writeCtx, ref, key, snap, data)
		if err == nil {
			k.logger.Debug("snapshot saved", "item", ref.String(), "key", key, "attempts", attempt)
			return nil
		}
		if !natsutil.IsRevisionConflict(err) || attempt >= maxKVSaveAttempts {
			return fmt.Errorf("save snapshot %s: %w", ref, err)
		}
		k.logger.Debug("snapshot revision conflict, retrying", "item", ref.String(), "attempt", attempt)
	}
}

func (k *KV) trySave(ctx context.Context, ref types.ItemRef, key string, snap types.Snapshot, data []byte) error {
	entry, err := k.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		_, err = k.kv.Create(ctx, key, data)
		return err
	}
	if err != nil {
		return err
	}

	// An unreadable stored value is overwritten.
	if current, derr := decodeJSON(entry.Value(), ref); derr == nil && current.ObservedAt.After(snap.ObservedAt) {
		return ErrStaleSnapshot
	}

	_, err = k.kv.Update(ctx, key, data, entry.Revision())

	return err
}

// Close closes the NATS connection when the store opened it.
func (k *KV) Close() error {
	if k.closer != nil {
		k.closer()
	}

	return nil
}
