package types

import "context"

// EventIterator is a lazy, finite sequence of timeline events for one item.
//
// Iteration follows the bufio.Scanner pattern:
//
//	it := source.Events(ref)
//	for it.Next(ctx) {
//	    ev := it.Event()
//	}
//	if err := it.Err(); err != nil {
//	    // handle
//	}
//
// Pages are fetched on demand inside Next. An iterator is not safe for
// concurrent use.
type EventIterator interface {
	// Next advances to the next event, fetching a page when needed.
	// Returns false at the end of the sequence or on error.
	Next(ctx context.Context) bool

	// Event returns the event at the current position.
	Event() TimelineEvent

	// Title returns the item title once the first page has been fetched.
	Title() string

	// Err returns the first error encountered, nil at a clean end.
	Err() error
}

// EventSource produces assignment timelines for tracked items.
//
// Implementations:
//   - timeline.Client: remote GraphQL API
//   - timeline.FileSource: canned response file
//   - source.Static: fixed in-memory events (tests, previews)
type EventSource interface {
	// Events returns an iterator over the assignment events of ref in
	// non-decreasing timestamp order. No request is made until Next is called.
	Events(ref ItemRef) EventIterator
}
