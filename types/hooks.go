package types

import "context"

// Hooks defines callbacks for tracking lifecycle events.
//
// All hooks are optional. They are called synchronously from worker
// goroutines, so they must be safe for concurrent use and should return
// quickly. Hook errors are logged but never change an item's outcome.
//
// Example:
//
//	hooks := &ghchk.Hooks{
//	    OnResult: func(ctx context.Context, res ghchk.Result) error {
//	        if res.Diff != nil && !res.Diff.Empty() {
//	            notify(res.Ref, res.Diff)
//	        }
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnItemStateChanged is called on every per-item state transition.
	OnItemStateChanged func(ctx context.Context, ref ItemRef, from, to ItemState) error

	// OnResult is called once per item with its terminal result, before the
	// result is delivered to the caller.
	OnResult func(ctx context.Context, result Result) error

	// OnWarning is called for each non-fatal warning raised while tracking.
	OnWarning func(ctx context.Context, w Warning) error
}
