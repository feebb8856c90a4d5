// Package diff compares a freshly reconstructed assignment state with the
// previously stored snapshot.
package diff

import "github.com/yasuyuky/gh-chk/types"

// Compute returns the added/removed delta between previous and current.
//
// When previous is nil the result is a baseline: both sets are empty and
// IsBaseline is true, since reporting every current assignee as "added" on
// first observation would only be noise. Compute never touches a store;
// persisting the new snapshot is a separate step.
//
// Parameters:
//   - previous: Stored snapshot, nil when absent
//   - current: Reconstructed state
//
// Returns:
//   - types.Diff: Disjoint added/removed sets
func Compute(previous *types.Snapshot, current types.AssignmentState) types.Diff {
	if previous == nil {
		return types.Diff{
			Added:      types.NewLoginSet(),
			Removed:    types.NewLoginSet(),
			IsBaseline: true,
		}
	}

	return types.Diff{
		Added:   current.Current.Minus(previous.Assignees),
		Removed: previous.Assignees.Minus(current.Current),
	}
}
