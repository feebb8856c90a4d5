// Package testutil provides shared assertions and fixtures for integration tests.
//
// Examples of utilities that belong here:
//   - Report assertions (every item has exactly one terminal result, diffs are disjoint)
//   - Fixture generators (item refs, timelines)
//
// Note: For NATS server and GraphQL endpoint fakes, use the
// github.com/yasuyuky/gh-chk/testing package. This package is specifically for
// integration test scenarios and helper utilities.
package testutil
