// Package testing provides test utilities for gh-chk.
//
// It follows Go's convention of providing testing utilities in a dedicated
// package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream for the KV snapshot store
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - NewGraphQLServer: In-process fake of the timeline GraphQL endpoint
//   - NewTestLogger: Logger that writes to testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    chktest "github.com/yasuyuky/gh-chk/testing"
//	)
//
//	func TestTracking(t *testing.T) {
//	    srv := chktest.NewGraphQLServer(t, "token")
//	    srv.SetItem(ref, "Fix the flaky test", chktest.AssignedNode("alice", t0))
//	    // Point a timeline.Client at srv.URL
//	}
package testing
