// Package history reconstructs the current assignee set of an item by folding
// its ordered assignment timeline.
//
// The fold is a pure reducer: it never fails and never looks at the network.
// Assigned(u) inserts u, Unassigned(u) removes u when present. Both operations
// are idempotent per login, so a repeated assign, an unassign of a user that
// was never assigned (truncated log), or a replayed suffix of the log all
// leave the result unchanged.
package history

import (
	"time"

	"github.com/yasuyuky/gh-chk/types"
)

// Folder folds events one at a time.
//
// It is the incremental form of Reduce, used when events come from a lazy
// paginated iterator so long timelines never need to be buffered. A Folder is
// not safe for concurrent use.
type Folder struct {
	current types.LoginSet
	asOf    time.Time
	applied int

	record  bool
	entries []types.HistoryEntry
	maxSeen int
}

// NewFolder creates an empty folder.
//
// Parameters:
//   - record: When true, every applied event is kept for History()
//
// Returns:
//   - *Folder: Folder with an empty assignee set
func NewFolder(record bool) *Folder {
	return &Folder{current: types.NewLoginSet(), record: record}
}

// Apply folds one event into the working set.
//
// Returns:
//   - bool: true when the event changed the set
func (f *Folder) Apply(ev types.TimelineEvent) bool {
	login := ev.Assignee.Login
	changed := false

	switch ev.Kind {
	case types.EventAssigned:
		if !f.current.Has(login) {
			f.current.Add(login)
			changed = true
		}
	case types.EventUnassigned:
		if f.current.Has(login) {
			f.current.Remove(login)
			changed = true
		}
	default:
		return false
	}

	f.asOf = ev.Timestamp
	f.applied++
	f.maxSeen = max(f.maxSeen, f.current.Len())

	if f.record {
		f.entries = append(f.entries, types.HistoryEntry{
			Event:     ev,
			Assignees: f.current.Sorted(),
			Changed:   changed,
		})
	}

	return changed
}

// Applied returns the number of events folded so far.
func (f *Folder) Applied() int {
	return f.applied
}

// State returns the reconstructed assignment state.
//
// Parameters:
//   - fetchedAt: Used as AsOf when no event has been folded
//
// Returns:
//   - types.AssignmentState: Copy of the current set and its as-of time
func (f *Folder) State(fetchedAt time.Time) types.AssignmentState {
	asOf := f.asOf
	if f.applied == 0 {
		asOf = fetchedAt
	}

	return types.AssignmentState{Current: f.current.Clone(), AsOf: asOf}
}

// History returns the recorded replay, or nil when the folder was created
// without recording.
func (f *Folder) History() *types.History {
	if !f.record {
		return nil
	}

	entries := make([]types.HistoryEntry, len(f.entries))
	copy(entries, f.entries)

	return &types.History{Entries: entries, MaxConcurrent: f.maxSeen}
}

// Reduce folds an ordered event sequence into the current assignee set.
//
// Parameters:
//   - events: Events in non-decreasing timestamp order
//   - fetchedAt: AsOf value used when events is empty
//
// Returns:
//   - types.AssignmentState: Assignee set after the last event
func Reduce(events []types.TimelineEvent, fetchedAt time.Time) types.AssignmentState {
	f := NewFolder(false)
	for _, ev := range events {
		f.Apply(ev)
	}

	return f.State(fetchedAt)
}

// Replay folds events and returns every intermediate assignee set together
// with the largest number of simultaneous assignees observed.
func Replay(events []types.TimelineEvent) types.History {
	f := NewFolder(true)
	for _, ev := range events {
		f.Apply(ev)
	}

	return *f.History()
}
