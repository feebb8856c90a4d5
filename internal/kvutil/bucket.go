// Package kvutil provides utilities for working with NATS JetStream KeyValue stores.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultSnapshotBucket is the bucket used for assignee snapshots when the
// store URI names none.
const DefaultSnapshotBucket = "ghchk-snapshots"

// SnapshotBucketConfig returns the bucket configuration for assignee snapshots.
//
// Snapshots never expire and keep a short revision history so an operator can
// inspect the previous state of an item with `nats kv history`.
//
// Parameters:
//   - bucket: Bucket name (DefaultSnapshotBucket if empty)
//   - storage: jetstream.FileStorage for durability, MemoryStorage for tests
//
// Returns:
//   - jetstream.KeyValueConfig: Configuration ready for EnsureBucket
func SnapshotBucketConfig(bucket string, storage jetstream.StorageType) jetstream.KeyValueConfig {
	if bucket == "" {
		bucket = DefaultSnapshotBucket
	}

	return jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "gh-chk assignee snapshots",
		History:     5,
		Storage:     storage,
		Replicas:    1,
	}
}

// EnsureBucket creates or opens a KV bucket with retry logic.
//
// Concurrent tracker processes may race to create the same bucket; losing the
// race surfaces as jetstream.ErrBucketExists and the bucket is opened instead.
// Other failures are retried with exponential backoff.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - config: KV bucket configuration
//   - maxRetries: Maximum number of attempts (default: 3)
//
// Returns:
//   - jetstream.KeyValue: The KV bucket instance
//   - error: Any error that occurred after all retries
//
// Example:
//
//	kv, err := kvutil.EnsureBucket(ctx, js, kvutil.SnapshotBucketConfig("", jetstream.FileStorage), 3)
func EnsureBucket(
	ctx context.Context,
	js jetstream.JetStream,
	config jetstream.KeyValueConfig,
	maxRetries int,
) (jetstream.KeyValue, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error

	for attempt := range maxRetries {
		kv, err := js.CreateKeyValue(ctx, config)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err := js.KeyValue(ctx, config.Bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during KV bucket creation: %w", ctx.Err())
		}

		// 10ms, 20ms, 40ms...
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt is bounded by maxRetries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s after %d attempts: %w",
		config.Bucket, maxRetries, lastErr)
}
