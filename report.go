package ghchk

import (
	"fmt"
	"time"
)

// Report is the outcome of one Tracker.Run.
type Report struct {
	// RunID identifies the run in logs.
	RunID string

	StartedAt  time.Time
	FinishedAt time.Time

	// DryRun is true when no snapshot was persisted.
	DryRun bool

	// Results holds one entry per distinct input ref, in input order.
	Results []Result
}

// Succeeded returns the number of items that reached ItemSucceeded.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.State == ItemSucceeded {
			n++
		}
	}

	return n
}

// Failed returns the number of items that reached ItemFailed.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.State == ItemFailed {
			n++
		}
	}

	return n
}

// Baselines returns the number of items observed for the first time.
func (r *Report) Baselines() int {
	n := 0
	for _, res := range r.Results {
		if res.Diff != nil && res.Diff.IsBaseline {
			n++
		}
	}

	return n
}

// Changed returns the successful results whose assignee set moved since the
// previous snapshot.
func (r *Report) Changed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Diff != nil && !res.Diff.IsBaseline && !res.Diff.Empty() {
			out = append(out, res)
		}
	}

	return out
}

// ExitCode returns 1 when any item failed, 0 otherwise.
func (r *Report) ExitCode() int {
	if r.Failed() > 0 {
		return 1
	}

	return 0
}

// Err returns ErrItemsFailed wrapped with a count when any item failed.
func (r *Report) Err() error {
	if failed := r.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrItemsFailed, failed, len(r.Results))
	}

	return nil
}
