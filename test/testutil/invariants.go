package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/yasuyuky/gh-chk/types"
)

// Refs returns n distinct refs in owner/repo numbered from 1.
func Refs(owner, repo string, n int) []types.ItemRef {
	refs := make([]types.ItemRef, n)
	for i := range refs {
		refs[i] = types.ItemRef{Owner: owner, Repo: repo, Number: i + 1}
	}

	return refs
}

// Handover returns a timeline where each login in turn is assigned and the
// previous one unassigned a second later, one minute apart starting at start.
func Handover(start time.Time, logins ...string) []types.TimelineEvent {
	var events []types.TimelineEvent
	at := start
	for i, login := range logins {
		events = append(events, types.Assigned(login, at))
		if i > 0 {
			events = append(events, types.Unassigned(logins[i-1], at.Add(time.Second)))
		}
		at = at.Add(time.Minute)
	}

	return events
}

// AssertResultsConsistent verifies that results cover refs exactly once and in
// order, that every result is terminal, and that each diff is well formed.
//
// Parameters:
//   - t: testing handle
//   - refs: distinct refs passed to the run, in input order
//   - results: Report.Results of that run
func AssertResultsConsistent(t *testing.T, refs []types.ItemRef, results []types.Result) {
	t.Helper()

	if err := checkResults(refs, results); err != nil {
		t.Fatal(err)
	}
}

func checkResults(refs []types.ItemRef, results []types.Result) error {
	if len(results) != len(refs) {
		return fmt.Errorf("got %d results for %d refs", len(results), len(refs))
	}

	for i, res := range results {
		if res.Ref != refs[i] {
			return fmt.Errorf("result %d is %s, want %s", i, res.Ref, refs[i])
		}
		if !res.State.IsTerminal() {
			return fmt.Errorf("%s: non-terminal state %s", res.Ref, res.State)
		}

		if res.State == types.ItemFailed {
			if res.Err == nil {
				return fmt.Errorf("%s: failed without error", res.Ref)
			}
			if res.Diff != nil {
				return fmt.Errorf("%s: failed item carries a diff", res.Ref)
			}

			continue
		}

		if res.Err != nil {
			return fmt.Errorf("%s: succeeded with error %v", res.Ref, res.Err)
		}
		if res.Diff == nil {
			return fmt.Errorf("%s: succeeded without diff", res.Ref)
		}
		for login := range res.Diff.Added {
			if res.Diff.Removed.Has(login) {
				return fmt.Errorf("%s: %s both added and removed", res.Ref, login)
			}
			if !res.Current.Has(login) {
				return fmt.Errorf("%s: added %s is not current", res.Ref, login)
			}
		}
		for login := range res.Diff.Removed {
			if res.Current.Has(login) {
				return fmt.Errorf("%s: removed %s is still current", res.Ref, login)
			}
		}
		if res.Diff.IsBaseline && !res.Diff.Empty() {
			return fmt.Errorf("%s: baseline with non-empty diff", res.Ref)
		}
	}

	return nil
}
