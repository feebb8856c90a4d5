// Package hooks provides default Hooks implementations.
package hooks

import (
	"context"

	"github.com/yasuyuky/gh-chk/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.ItemRef, types.ItemState, types.ItemState) error = (*NopHooks)(nil).OnItemStateChanged
	_ func(context.Context, types.Result) error                                   = (*NopHooks)(nil).OnResult
	_ func(context.Context, types.Warning) error                                  = (*NopHooks)(nil).OnWarning
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnItemStateChanged: h.OnItemStateChanged,
		OnResult:           h.OnResult,
		OnWarning:          h.OnWarning,
	}
}

// Merge returns h with every nil callback replaced by its no-op counterpart.
func Merge(h *types.Hooks) types.Hooks {
	out := NewNop()
	if h == nil {
		return out
	}
	if h.OnItemStateChanged != nil {
		out.OnItemStateChanged = h.OnItemStateChanged
	}
	if h.OnResult != nil {
		out.OnResult = h.OnResult
	}
	if h.OnWarning != nil {
		out.OnWarning = h.OnWarning
	}

	return out
}

// OnItemStateChanged is a no-op implementation.
func (h *NopHooks) OnItemStateChanged(ctx context.Context, ref types.ItemRef, from, to types.ItemState) error {
	return nil
}

// OnResult is a no-op implementation.
func (h *NopHooks) OnResult(ctx context.Context, result types.Result) error {
	return nil
}

// OnWarning is a no-op implementation.
func (h *NopHooks) OnWarning(ctx context.Context, w types.Warning) error {
	return nil
}
