package types

import "context"

// Warning is a non-fatal signal raised while tracking an item.
//
// Warnings cover conditions that are tolerated by policy: a dropped non-user
// assignee, a corrupted snapshot that is treated as absent, an out-of-order
// event across a page boundary.
type Warning struct {
	// Item is the tracked item the warning concerns.
	Item ItemRef

	// Source names the emitting component (e.g., "timeline", "store").
	Source string

	// Message is a short human-readable description.
	Message string

	// Err is the optional underlying cause.
	Err error
}

// String renders the warning for logs and reports.
func (w Warning) String() string {
	if w.Err != nil {
		return w.Source + ": " + w.Message + ": " + w.Err.Error()
	}

	return w.Source + ": " + w.Message
}

// WarningHandler receives warnings emitted through a context.
type WarningHandler func(w Warning)

type warningHandlerKey struct{}

// ContextWithWarningHandler returns a context that routes EmitWarning calls to h.
//
// The tracker installs one handler per item so that warnings raised deep in
// the fetcher or store are attributed to the right result.
func ContextWithWarningHandler(ctx context.Context, h WarningHandler) context.Context {
	return context.WithValue(ctx, warningHandlerKey{}, h)
}

// EmitWarning delivers w to the handler installed in ctx. Without a handler
// the warning is discarded.
func EmitWarning(ctx context.Context, w Warning) {
	if h, ok := ctx.Value(warningHandlerKey{}).(WarningHandler); ok && h != nil {
		h(w)
	}
}
