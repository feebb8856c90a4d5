// Package types provides core type definitions and interfaces for gh-chk assignee tracking.
//
// This package contains shared types that are used across multiple packages in the
// module. By keeping these types in a separate package, we avoid import cycles
// between the root ghchk package and the fetcher, store, and reconstruction packages.
//
// Key types:
//   - TimelineEvent: A single assignment or unassignment record
//   - ItemRef: Key of a tracked issue or pull request
//   - LoginSet: Set of assignee logins
//   - Snapshot: Last persisted assignee set for an item
//   - Diff: Added/removed delta between two assignee sets
//   - ItemState: Per-item tracking pipeline state
//   - APIError: Classified remote API failure
//   - Logger, MetricsCollector, Hooks: Ambient collaborators
package types
