package ghchk

import "errors"

// Sentinel errors returned by the Tracker.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEventSourceRequired is returned when the event source is nil.
	ErrEventSourceRequired = errors.New("event source is required")

	// ErrSnapshotStoreRequired is returned when the snapshot store is nil.
	ErrSnapshotStoreRequired = errors.New("snapshot store is required")

	// ErrItemsFailed is returned by Report.Err when at least one item failed.
	ErrItemsFailed = errors.New("one or more items failed")
)
