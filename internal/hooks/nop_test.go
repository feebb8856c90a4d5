package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yasuyuky/gh-chk/types"
)

var testRef = types.ItemRef{Owner: "octo", Repo: "hello", Number: 1}

func TestNewNop(t *testing.T) {
	hooks := NewNop()

	require.NotNil(t, hooks.OnItemStateChanged)
	require.NotNil(t, hooks.OnResult)
	require.NotNil(t, hooks.OnWarning)
}

func TestNopHooks_Callbacks(t *testing.T) {
	hooks := NewNop()
	ctx := context.Background()

	require.NoError(t, hooks.OnItemStateChanged(ctx, testRef, types.ItemPending, types.ItemFetching))
	require.NoError(t, hooks.OnResult(ctx, types.Result{Ref: testRef, State: types.ItemSucceeded}))
	require.NoError(t, hooks.OnWarning(ctx, types.Warning{Item: testRef, Source: "store", Message: "corrupt"}))
}

func TestMerge(t *testing.T) {
	t.Run("nil hooks", func(t *testing.T) {
		merged := Merge(nil)
		require.NotNil(t, merged.OnItemStateChanged)
		require.NotNil(t, merged.OnResult)
		require.NotNil(t, merged.OnWarning)
	})

	t.Run("partial hooks keep user callbacks", func(t *testing.T) {
		errBoom := errors.New("boom")
		var seen []types.ItemRef

		merged := Merge(&types.Hooks{
			OnResult: func(_ context.Context, res types.Result) error {
				seen = append(seen, res.Ref)
				return errBoom
			},
		})

		require.NoError(t, merged.OnWarning(context.Background(), types.Warning{}))
		require.ErrorIs(t, merged.OnResult(context.Background(), types.Result{Ref: testRef}), errBoom)
		require.Equal(t, []types.ItemRef{testRef}, seen)
	})
}
