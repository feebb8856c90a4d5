package source

import (
	"context"
	"sync"

	"github.com/yasuyuky/gh-chk/types"
)

// Static implements an event source with fixed, scripted timelines.
//
// Each item can carry a title, an event list and an error. The error is
// returned after the first FailAfter events have been yielded, which lets
// tests abort a fetch midway.
type Static struct {
	mu    sync.RWMutex
	items map[types.ItemRef]Timeline
}

// Timeline is the scripted content of one item.
type Timeline struct {
	Title  string
	Events []types.TimelineEvent

	// Err, when set, ends iteration with this error.
	Err error

	// FailAfter is the number of events yielded before Err is returned.
	FailAfter int
}

var _ types.EventSource = (*Static)(nil)

// NewStatic creates a new static event source.
//
// Items not present in the map yield a NotFound error.
//
// Parameters:
//   - items: Scripted timelines by item
//
// Returns:
//   - *Static: Initialized static source
//
// Example:
//
//	src := source.NewStatic(map[types.ItemRef]source.Timeline{
//	    ref: {Title: "Fix login", Events: []types.TimelineEvent{types.Assigned("alice", t0)}},
//	})
//	tracker, err := ghchk.NewTracker(&cfg, src, store.NewMemory())
//	if err != nil { /* handle */ }
func NewStatic(items map[types.ItemRef]Timeline) *Static {
	s := &Static{items: make(map[types.ItemRef]Timeline, len(items))}
	for ref, tl := range items {
		s.items[ref] = tl.clone()
	}

	return s
}

// Events returns an iterator over the scripted timeline of ref.
//
// The iterator captures the timeline at the time of the first Next call.
func (s *Static) Events(ref types.ItemRef) types.EventIterator {
	return &staticIterator{src: s, ref: ref, pos: -1}
}

// Update replaces the timeline of ref.
//
// This allows the static source to simulate activity between runs.
//
// Example:
//
//	src.Update(ref, source.Timeline{Title: "Fix login", Events: append(events, types.Assigned("bob", t1))})
func (s *Static) Update(ref types.ItemRef, tl Timeline) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[ref] = tl.clone()
}

// Append adds events to the end of ref's timeline.
func (s *Static) Append(ref types.ItemRef, events ...types.TimelineEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tl := s.items[ref]
	tl.Events = append(append([]types.TimelineEvent(nil), tl.Events...), events...)
	s.items[ref] = tl
}

// SetError makes iteration of ref fail with err (nil clears it).
func (s *Static) SetError(ref types.ItemRef, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tl := s.items[ref]
	tl.Err = err
	tl.FailAfter = 0
	s.items[ref] = tl
}

func (s *Static) lookup(ref types.ItemRef) (Timeline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tl, ok := s.items[ref]

	return tl.clone(), ok
}

func (tl Timeline) clone() Timeline {
	tl.Events = append([]types.TimelineEvent(nil), tl.Events...)
	return tl
}

type staticIterator struct {
	src *Static
	ref types.ItemRef

	loaded bool
	tl     Timeline
	pos    int
	err    error
}

func (it *staticIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}

	if !it.loaded {
		tl, ok := it.src.lookup(it.ref)
		if !ok {
			it.err = &types.APIError{Kind: types.ErrKindNotFound, Op: "static source", Item: it.ref}
			return false
		}
		it.tl = tl
		it.loaded = true
	}

	if it.tl.Err != nil && it.pos+1 >= it.tl.FailAfter {
		it.err = it.tl.Err
		return false
	}
	if it.pos+1 >= len(it.tl.Events) {
		return false
	}
	it.pos++

	return true
}

func (it *staticIterator) Event() types.TimelineEvent {
	if it.pos < 0 || it.pos >= len(it.tl.Events) {
		return types.TimelineEvent{}
	}

	return it.tl.Events[it.pos]
}

func (it *staticIterator) Title() string {
	return it.tl.Title
}

func (it *staticIterator) Err() error {
	return it.err
}
