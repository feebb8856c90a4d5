package ghchk

import "github.com/yasuyuky/gh-chk/types"

// Re-export types from the types package.
//
// Internal packages depend on `types` rather than on the root package, which
// keeps the import graph acyclic while still giving callers `ghchk.ItemRef`,
// `ghchk.Logger`, etc.
type (
	ItemRef         = types.ItemRef
	Assignee        = types.Assignee
	TimelineEvent   = types.TimelineEvent
	EventKind       = types.EventKind
	LoginSet        = types.LoginSet
	AssignmentState = types.AssignmentState
	Snapshot        = types.Snapshot
	Diff            = types.Diff
	History         = types.History
	HistoryEntry    = types.HistoryEntry
	Result          = types.Result
	ItemState       = types.ItemState
	Warning         = types.Warning
	Credentials     = types.Credentials
	APIError        = types.APIError
	ErrorKind       = types.ErrorKind
)

// Re-export interfaces from the types package for convenience.
type (
	EventSource      = types.EventSource
	EventIterator    = types.EventIterator
	SnapshotStore    = types.SnapshotStore
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export ItemState constants from the types package.
const (
	ItemPending        = types.ItemPending
	ItemFetching       = types.ItemFetching
	ItemReconstructing = types.ItemReconstructing
	ItemDiffing        = types.ItemDiffing
	ItemPersisting     = types.ItemPersisting
	ItemSucceeded      = types.ItemSucceeded
	ItemFailed         = types.ItemFailed
)

// Re-export event kinds from the types package.
const (
	EventAssigned   = types.EventAssigned
	EventUnassigned = types.EventUnassigned
)

// ParseItemRef parses "owner/repo#number" or "owner/repo/number".
func ParseItemRef(s string) (ItemRef, error) {
	return types.ParseItemRef(s)
}
