package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from worker goroutines and must be thread-safe.
//
// This interface composes smaller, component-focused interfaces so that
// the fetcher only depends on what it records.
type MetricsCollector interface {
	TrackerMetrics
	FetchMetrics
	StoreMetrics
}

// TrackerMetrics defines metrics for the tracking coordinator.
type TrackerMetrics interface {
	// RecordItemStateTransition records a per-item pipeline state transition.
	RecordItemStateTransition(from, to ItemState)

	// RecordItemResult records the terminal outcome of one item.
	//
	// Parameters:
	//   - state: ItemSucceeded or ItemFailed
	//   - kind: Failure kind (ErrKindUnknown on success)
	//   - duration: Time spent on the item in seconds
	RecordItemResult(state ItemState, kind ErrorKind, duration float64)

	// RecordAssigneeChanges records the size of a computed diff.
	//
	// Parameters:
	//   - added: Number of logins added
	//   - removed: Number of logins removed
	//   - baseline: true when no prior snapshot existed
	RecordAssigneeChanges(added, removed int, baseline bool)
}

// FetchMetrics defines metrics for remote timeline requests.
type FetchMetrics interface {
	// RecordRequest records one outbound page request.
	//
	// Parameters:
	//   - outcome: "ok" or the ErrorKind name of the failure
	//   - duration: Round-trip time in seconds (excluding rate limiter wait)
	RecordRequest(outcome string, duration float64)

	// RecordRateLimitWait records time spent waiting on the shared request limiter.
	RecordRateLimitWait(duration float64)

	// RecordEventsDropped records events dropped during normalization.
	//
	// Parameters:
	//   - reason: "non_user" or "duplicate"
	//   - count: Number of events dropped
	RecordEventsDropped(reason string, count int)
}

// StoreMetrics defines metrics for snapshot persistence.
type StoreMetrics interface {
	// RecordSnapshotOperation records a snapshot load or save.
	//
	// Parameters:
	//   - op: "load" or "save"
	//   - success: false when the operation failed
	//   - duration: Time taken in seconds
	RecordSnapshotOperation(op string, success bool, duration float64)
}
