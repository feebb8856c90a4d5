package ghchk

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/yasuyuky/gh-chk/timeline"
)

// NewLimiter returns the shared request limiter described by cfg.
func NewLimiter(cfg *Config) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}

// NewTimelineClient builds a timeline client whose limiter, paging, timeout
// and retry settings come from cfg.
//
// Options in opts are applied after the ones derived from cfg, so callers can
// still inject a logger, metrics or a custom HTTP client.
//
// Parameters:
//   - cfg: Run configuration (zero fields are filled with defaults)
//   - creds: Resolved credentials
//   - opts: Additional timeline options
//
// Returns:
//   - *timeline.Client: Client usable as the Tracker's event source
//   - error: ErrInvalidConfig or timeline.ErrNoToken
func NewTimelineClient(cfg *Config, creds Credentials, opts ...timeline.Option) (*timeline.Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	base := []timeline.Option{
		timeline.WithEndpoint(cfg.Endpoint),
		timeline.WithLimiter(NewLimiter(cfg)),
		timeline.WithPageSize(cfg.PageSize),
		timeline.WithRequestTimeout(cfg.RequestTimeout),
		timeline.WithMaxRetries(cfg.MaxRetries),
		timeline.WithRetryDelays(cfg.RetryBaseDelay, cfg.RetryMaxDelay),
	}

	return timeline.New(creds, append(base, opts...)...)
}
