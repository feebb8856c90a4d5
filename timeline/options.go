package timeline

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/yasuyuky/gh-chk/types"
)

// DefaultEndpoint is the public GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// MaxPageSize is the largest page the GraphQL API serves.
const MaxPageSize = 100

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	endpoint       string
	httpClient     *http.Client
	limiter        *rate.Limiter
	pageSize       int
	requestTimeout time.Duration
	maxRetries     int
	retryBase      time.Duration
	retryMax       time.Duration
	retrySeed      int64
	logger         types.Logger
	metrics        types.FetchMetrics
}

// WithEndpoint overrides the GraphQL endpoint URL.
func WithEndpoint(url string) Option {
	return func(o *clientOptions) {
		o.endpoint = url
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// WithLimiter sets the request limiter shared by every iterator of the client.
//
// Parameters:
//   - l: Token bucket gating each outbound request (unlimited if nil)
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	limiter := rate.NewLimiter(rate.Limit(5), 5)
//	client, err := timeline.New(creds, timeline.WithLimiter(limiter))
func WithLimiter(l *rate.Limiter) Option {
	return func(o *clientOptions) {
		o.limiter = l
	}
}

// WithPageSize sets the number of timeline items requested per page (1..100).
func WithPageSize(n int) Option {
	return func(o *clientOptions) {
		o.pageSize = n
	}
}

// WithRequestTimeout bounds each page request. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.requestTimeout = d
	}
}

// WithMaxRetries sets how many times a Network or RateLimited page request is
// retried. The default is 0: failures surface immediately.
func WithMaxRetries(n int) Option {
	return func(o *clientOptions) {
		o.maxRetries = n
	}
}

// WithRetryDelays sets the base and maximum retry backoff.
func WithRetryDelays(base, maxDelay time.Duration) Option {
	return func(o *clientOptions) {
		o.retryBase = base
		o.retryMax = maxDelay
	}
}

// WithRetrySeed makes retry jitter deterministic. Intended for tests.
func WithRetrySeed(seed int64) Option {
	return func(o *clientOptions) {
		o.retrySeed = seed
	}
}

// WithLogger sets a logger.
func WithLogger(l types.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// WithMetrics sets a fetch metrics collector.
func WithMetrics(m types.FetchMetrics) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}
