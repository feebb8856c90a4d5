package ghchk

import "time"

// Option configures a Tracker.
type Option func(*trackerOptions)

type trackerOptions struct {
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
	clock   func() time.Time
}

// WithHooks sets lifecycle callbacks. Nil callbacks are replaced by no-ops.
func WithHooks(hooks *Hooks) Option {
	return func(o *trackerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *trackerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(o *trackerOptions) {
		o.logger = logger
	}
}

// WithClock overrides the time source used for snapshot observation times
// and durations.
func WithClock(now func() time.Time) Option {
	return func(o *trackerOptions) {
		o.clock = now
	}
}
