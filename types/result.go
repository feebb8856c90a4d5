package types

import "time"

// Result is the terminal outcome of tracking one item.
//
// A Succeeded result always carries a Diff; a Failed result always carries Err.
// Callers must not read "unchanged" into a Failed result.
type Result struct {
	Ref   ItemRef
	Title string
	State ItemState

	// Current is the reconstructed assignee set (Succeeded only).
	Current LoginSet

	// AsOf is the timestamp of the last folded event (Succeeded only).
	AsOf time.Time

	// Diff is the delta against the previous snapshot (Succeeded only).
	Diff *Diff

	// History is the full replay when requested (Succeeded only).
	History *History

	// Warnings are the non-fatal signals raised while tracking the item.
	Warnings []Warning

	// Err is the failure cause (Failed only).
	Err error

	// Duration is the wall time spent on the item.
	Duration time.Duration
}

// Succeeded reports whether the item reached ItemSucceeded.
func (r Result) Succeeded() bool {
	return r.State == ItemSucceeded
}

// ErrorKind returns the kind of the failure, ErrKindUnknown when the result
// succeeded or failed outside the remote API taxonomy.
func (r Result) ErrorKind() ErrorKind {
	if r.Err == nil {
		return ErrKindUnknown
	}

	return KindOf(r.Err)
}
