// Package ghchk tracks who is assigned to GitHub issues and pull requests.
//
// For every item it reconstructs the current assignee set from the item's
// assignment timeline, compares it with the snapshot persisted by the
// previous run, reports the added and removed logins and persists the new
// snapshot. Many items are processed concurrently under a shared request
// budget, and a failure on one item never affects the others.
//
// # Quick Start
//
//	import (
//	    "github.com/yasuyuky/gh-chk"
//	    "github.com/yasuyuky/gh-chk/credentials"
//	    "github.com/yasuyuky/gh-chk/store"
//	)
//
//	cfg := ghchk.DefaultConfig()
//	creds, err := credentials.Resolve(os.Getenv)
//	client, err := ghchk.NewTimelineClient(&cfg, creds)
//	st, err := store.Open(ctx, "/var/lib/gh-chk")
//	defer st.Close()
//
//	tracker, err := ghchk.NewTracker(&cfg, client, st)
//	report := tracker.Run(ctx, refs)
//	for _, res := range report.Results {
//	    fmt.Println(res.Ref, res.Diff)
//	}
//
// # Item State Machine
//
// Each item progresses independently through:
//
//	Pending → Fetching → Reconstructing → Diffing → Persisting → Succeeded
//
// Any non-terminal state can move to Failed. In dry-run mode Diffing moves
// straight to Succeeded and nothing is persisted. A snapshot is saved only
// after the whole timeline has been fetched, so an aborted fetch never
// overwrites the previous snapshot.
//
// # Snapshot Stores
//
// store.Open selects a backend from a URI: a plain directory or file:// for
// YAML files, sqlite:// and postgres:// for SQL tables, nats:// for a
// JetStream key-value bucket, and memory: for tests.
//
// # Hooks
//
//	hooks := &ghchk.Hooks{
//	    OnResult: func(ctx context.Context, res ghchk.Result) error {
//	        // Forward changes somewhere
//	        return nil
//	    },
//	}
//	tracker, err := ghchk.NewTracker(&cfg, client, st, ghchk.WithHooks(hooks))
//
// See the examples/ directory for complete working examples.
package ghchk
