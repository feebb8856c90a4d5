package timeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/yasuyuky/gh-chk/types"
)

const warningSource = "timeline"

// Iterator is a lazy, restartable sequence of the assignment events of one item.
//
// Events are yielded in non-decreasing timestamp order within a page. An event
// whose kind, login and timestamp match an event yielded on an earlier page is
// dropped, as is a repeat of the previous event of the same login within a
// page. Non-user assignees are dropped with a warning emitted through the
// context passed to Next.
type Iterator struct {
	pager   pager
	ref     types.ItemRef
	metrics types.FetchMetrics

	title   string
	buf     []types.TimelineEvent
	pos     int
	cursor  string
	fetched bool // at least one page received
	done    bool // no further page
	cur     types.TimelineEvent
	last    time.Time
	seen    map[string]uint64   // login -> key of its last yielded event in the current page
	yielded map[uint64]struct{} // keys of events buffered from earlier pages
	pages   int
	err     error
}

var _ types.EventIterator = (*Iterator)(nil)

func newIterator(p pager, ref types.ItemRef, m types.FetchMetrics) *Iterator {
	return &Iterator{
		pager:   p,
		ref:     ref,
		metrics: m,
		seen:    make(map[string]uint64),
		yielded: make(map[uint64]struct{}),
	}
}

// Next advances to the next event, fetching the next page when the buffered
// one is exhausted. It returns false at the end of the timeline or on error.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	for it.pos >= len(it.buf) {
		if it.done {
			return false
		}
		if err := ctx.Err(); err != nil {
			it.err = err
			return false
		}

		p, err := it.pager.fetchPage(ctx, it.ref, it.cursor)
		if err != nil {
			it.err = err
			return false
		}
		if err := it.accept(ctx, p); err != nil {
			it.err = err
			return false
		}
	}

	it.cur = it.buf[it.pos]
	it.pos++
	it.last = it.cur.Timestamp

	return true
}

// Event returns the event at the current position.
func (it *Iterator) Event() types.TimelineEvent {
	return it.cur
}

// Title returns the item title once the first page has been fetched.
func (it *Iterator) Title() string {
	return it.title
}

// Err returns the first error encountered, nil at a clean end.
func (it *Iterator) Err() error {
	return it.err
}

// Pages returns the number of pages fetched since the last Reset.
func (it *Iterator) Pages() int {
	return it.pages
}

// Reset rewinds the iterator so the next call to Next refetches from the
// first page.
func (it *Iterator) Reset() {
	it.title = ""
	it.buf = nil
	it.pos = 0
	it.cursor = ""
	it.fetched = false
	it.done = false
	it.cur = types.TimelineEvent{}
	it.last = time.Time{}
	it.seen = make(map[string]uint64)
	it.yielded = make(map[uint64]struct{})
	it.pages = 0
	it.err = nil
}

// All drains the iterator into a slice.
func (it *Iterator) All(ctx context.Context) ([]types.TimelineEvent, error) {
	var out []types.TimelineEvent
	for it.Next(ctx) {
		out = append(out, it.Event())
	}

	return out, it.Err()
}

// accept buffers a fetched page after dedup and ordering checks.
func (it *Iterator) accept(ctx context.Context, p *page) error {
	if p.hasNext && (p.endCursor == "" || p.endCursor == it.cursor) {
		return &types.APIError{
			Kind: types.ErrKindMalformed,
			Op:   opFetchPage,
			Item: it.ref,
			Err:  fmt.Errorf("page reports more items but cursor did not advance (%q)", p.endCursor),
		}
	}

	if !it.fetched {
		it.title = p.title
	}
	it.fetched = true
	it.pages++
	it.done = !p.hasNext
	it.cursor = p.endCursor

	for _, s := range p.skipped {
		it.warn(ctx, "dropped non-user assignee: "+s)
	}
	it.metrics.RecordEventsDropped("non_user", len(p.skipped))

	if p.reordered {
		it.warn(ctx, fmt.Sprintf("page %d delivered events out of order; sorted within page", it.pages))
	}

	for _, ev := range it.buf {
		it.yielded[eventKey(ev)] = struct{}{}
	}
	clear(it.seen)

	it.buf = it.buf[:0]
	it.pos = 0
	duplicates := 0
	crossed := false
	for _, ev := range p.events {
		h := eventKey(ev)
		if _, ok := it.yielded[h]; ok {
			duplicates++
			continue
		}
		if prev, ok := it.seen[ev.Assignee.Login]; ok && prev == h {
			duplicates++
			continue
		}
		it.seen[ev.Assignee.Login] = h

		if !it.last.IsZero() && ev.Timestamp.Before(it.last) {
			crossed = true
		}
		it.buf = append(it.buf, ev)
	}
	it.metrics.RecordEventsDropped("duplicate", duplicates)

	if crossed {
		it.warn(ctx, "out-of-order event across page boundary")
	}

	return nil
}

func (it *Iterator) warn(ctx context.Context, msg string) {
	types.EmitWarning(ctx, types.Warning{Item: it.ref, Source: warningSource, Message: msg})
}

// eventKey hashes the identity of an event for duplicate detection.
func eventKey(ev types.TimelineEvent) uint64 {
	return xxh3.HashString(ev.Kind.String() + "\x00" + ev.Assignee.Login + "\x00" +
		strconv.FormatInt(ev.Timestamp.UnixNano(), 10))
}
