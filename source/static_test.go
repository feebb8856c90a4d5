package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yasuyuky/gh-chk/types"
)

var (
	t0  = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ref = types.ItemRef{Owner: "octo", Repo: "hello", Number: 1}
)

func drain(t *testing.T, it types.EventIterator) ([]types.TimelineEvent, error) {
	t.Helper()

	var out []types.TimelineEvent
	for it.Next(context.Background()) {
		out = append(out, it.Event())
	}

	return out, it.Err()
}

func TestStatic_Events(t *testing.T) {
	t.Run("returns all events", func(t *testing.T) {
		events := []types.TimelineEvent{
			types.Assigned("alice", t0),
			types.Assigned("bob", t0.Add(time.Hour)),
			types.Unassigned("alice", t0.Add(2*time.Hour)),
		}
		src := NewStatic(map[types.ItemRef]Timeline{ref: {Title: "Hello", Events: events}})

		it := src.Events(ref)
		got, err := drain(t, it)
		require.NoError(t, err)
		require.Equal(t, events, got)
		require.Equal(t, "Hello", it.Title())
	})

	t.Run("empty timeline", func(t *testing.T) {
		src := NewStatic(map[types.ItemRef]Timeline{ref: {Title: "Quiet"}})

		got, err := drain(t, src.Events(ref))
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("unknown item is not found", func(t *testing.T) {
		src := NewStatic(nil)

		_, err := drain(t, src.Events(ref))
		require.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("does not alias the caller's slice", func(t *testing.T) {
		events := []types.TimelineEvent{types.Assigned("alice", t0)}
		src := NewStatic(map[types.ItemRef]Timeline{ref: {Events: events}})

		events[0] = types.Assigned("mallory", t0)

		got, err := drain(t, src.Events(ref))
		require.NoError(t, err)
		require.Equal(t, "alice", got[0].Assignee.Login)
	})

	t.Run("cancelled context", func(t *testing.T) {
		src := NewStatic(map[types.ItemRef]Timeline{ref: {Events: []types.TimelineEvent{types.Assigned("alice", t0)}}})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		it := src.Events(ref)
		require.False(t, it.Next(ctx))
		require.ErrorIs(t, it.Err(), context.Canceled)
	})
}

func TestStatic_Errors(t *testing.T) {
	errBoom := &types.APIError{Kind: types.ErrKindNetwork, Err: errors.New("boom")}

	t.Run("fails before the first event", func(t *testing.T) {
		src := NewStatic(map[types.ItemRef]Timeline{ref: {Events: []types.TimelineEvent{types.Assigned("alice", t0)}}})
		src.SetError(ref, errBoom)

		got, err := drain(t, src.Events(ref))
		require.Empty(t, got)
		require.ErrorIs(t, err, types.ErrNetwork)

		src.SetError(ref, nil)
		got, err = drain(t, src.Events(ref))
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("fails midway", func(t *testing.T) {
		src := NewStatic(map[types.ItemRef]Timeline{ref: {
			Events:    []types.TimelineEvent{types.Assigned("alice", t0), types.Assigned("bob", t0.Add(time.Minute))},
			Err:       errBoom,
			FailAfter: 1,
		}})

		got, err := drain(t, src.Events(ref))
		require.Equal(t, []types.TimelineEvent{types.Assigned("alice", t0)}, got)
		require.ErrorIs(t, err, errBoom)
	})
}

func TestStatic_UpdateAndAppend(t *testing.T) {
	src := NewStatic(map[types.ItemRef]Timeline{ref: {Title: "v1"}})

	src.Update(ref, Timeline{Title: "v2", Events: []types.TimelineEvent{types.Assigned("alice", t0)}})
	src.Append(ref, types.Assigned("bob", t0.Add(time.Hour)))

	it := src.Events(ref)
	got, err := drain(t, it)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "v2", it.Title())
}
