// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/yasuyuky/gh-chk/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	metrics := metrics.NewNop()
//	tracker, err := ghchk.NewTracker(&cfg, src, st, ghchk.WithMetrics(metrics))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// TrackerMetrics implementation

// RecordItemStateTransition discards the state transition metric.
func (n *NopMetrics) RecordItemStateTransition(_ /* from */, _ /* to */ types.ItemState) {
	// No-op
}

// RecordItemResult discards the item result metric.
func (n *NopMetrics) RecordItemResult(_ /* state */ types.ItemState, _ /* kind */ types.ErrorKind, _ /* duration */ float64) {
	// No-op
}

// RecordAssigneeChanges discards the diff size metric.
func (n *NopMetrics) RecordAssigneeChanges(_ /* added */, _ /* removed */ int, _ /* baseline */ bool) {
	// No-op
}

// FetchMetrics implementation

// RecordRequest discards the request metric.
func (n *NopMetrics) RecordRequest(_ /* outcome */ string, _ /* duration */ float64) {
	// No-op
}

// RecordRateLimitWait discards the limiter wait metric.
func (n *NopMetrics) RecordRateLimitWait(_ /* duration */ float64) {
	// No-op
}

// RecordEventsDropped discards the dropped events metric.
func (n *NopMetrics) RecordEventsDropped(_ /* reason */ string, _ /* count */ int) {
	// No-op
}

// StoreMetrics implementation

// RecordSnapshotOperation discards the snapshot operation metric.
func (n *NopMetrics) RecordSnapshotOperation(_ /* op */ string, _ /* success */ bool, _ /* duration */ float64) {
	// No-op
}
