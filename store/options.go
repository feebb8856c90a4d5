package store

import (
	"context"
	"time"

	"github.com/yasuyuky/gh-chk/internal/logger"
	"github.com/yasuyuky/gh-chk/types"
)

const warningSource = "store"

// writeTimeout bounds a remote write that runs detached from cancellation.
const writeTimeout = 10 * time.Second

// Option configures a store backend.
type Option func(*storeOptions)

type storeOptions struct {
	logger types.Logger
}

// WithLogger sets a logger.
func WithLogger(l types.Logger) Option {
	return func(o *storeOptions) {
		o.logger = l
	}
}

func applyOptions(opts []Option) storeOptions {
	o := storeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}

	return o
}

// treatAsAbsent reports an unreadable snapshot and returns the (nil, nil)
// result Load uses for it. A cancelled context wins over the read failure.
func treatAsAbsent(ctx context.Context, log types.Logger, backend string, ref types.ItemRef, err error) (*types.Snapshot, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	log.Warn("snapshot unreadable, treating as absent",
		"backend", backend,
		"item", ref.String(),
		"error", err,
	)
	types.EmitWarning(ctx, types.Warning{
		Item:    ref,
		Source:  warningSource,
		Message: "snapshot unreadable, treating as absent",
		Err:     err,
	})

	return nil, nil
}

// writeContext returns the context for the final write of a Save. Once the
// write is issued it must not be cut short by cancellation of ctx, otherwise
// the server may commit a snapshot whose item is reported Failed.
func writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
}
