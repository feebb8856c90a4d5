package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yasuyuky/gh-chk/types"
)

func TestNewNop(t *testing.T) {
	metrics := NewNop()

	require.NotNil(t, metrics)
	require.IsType(t, &NopMetrics{}, metrics)
}

func TestNopMetrics_RecordItemStateTransition(t *testing.T) {
	metrics := NewNop()

	// Should not panic with various inputs
	require.NotPanics(t, func() {
		metrics.RecordItemStateTransition(types.ItemPending, types.ItemFetching)
		metrics.RecordItemStateTransition(0, 0)
		metrics.RecordItemStateTransition(types.ItemState(999), types.ItemState(1000))
	})
}

func TestNopMetrics_RecordItemResult(t *testing.T) {
	metrics := NewNop()

	require.NotPanics(t, func() {
		metrics.RecordItemResult(types.ItemSucceeded, types.ErrKindUnknown, 0.25)
		metrics.RecordItemResult(types.ItemFailed, types.ErrKindNetwork, -1.0)
	})
}

func TestNopMetrics_RecordAssigneeChanges(t *testing.T) {
	metrics := NewNop()

	require.NotPanics(t, func() {
		metrics.RecordAssigneeChanges(2, 1, false)
		metrics.RecordAssigneeChanges(0, 0, true)
		metrics.RecordAssigneeChanges(-1, -1, false)
	})
}

func TestNopMetrics_FetchMetrics(t *testing.T) {
	metrics := NewNop()

	require.NotPanics(t, func() {
		metrics.RecordRequest("ok", 0.1)
		metrics.RecordRequest("", 0)
		metrics.RecordRateLimitWait(0.5)
		metrics.RecordEventsDropped("non_user", 3)
		metrics.RecordEventsDropped("duplicate", 0)
	})
}

func TestNopMetrics_RecordSnapshotOperation(t *testing.T) {
	metrics := NewNop()

	require.NotPanics(t, func() {
		metrics.RecordSnapshotOperation("load", true, 0.001)
		metrics.RecordSnapshotOperation("save", false, 0)
	})
}
