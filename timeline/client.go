package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/yasuyuky/gh-chk/internal/logger"
	"github.com/yasuyuky/gh-chk/internal/metrics"
	"github.com/yasuyuky/gh-chk/types"
)

const (
	opFetchPage     = "fetch timeline page"
	maxResponseSize = 16 << 20
	userAgent       = "gh-chk"
)

// pager fetches one normalized page of an item timeline.
type pager interface {
	fetchPage(ctx context.Context, ref types.ItemRef, after string) (*page, error)
}

// Client fetches assignment timelines from the GraphQL API.
//
// A Client is safe for concurrent use. Every request made by any of its
// iterators first waits on the shared limiter.
type Client struct {
	endpoint       string
	httpClient     *http.Client
	creds          types.Credentials
	limiter        *rate.Limiter
	pageSize       int
	requestTimeout time.Duration
	maxRetries     int
	retry          *retryPolicy
	logger         types.Logger
	metrics        types.FetchMetrics
	now            func() time.Time
}

var (
	_ types.EventSource = (*Client)(nil)
	_ pager             = (*Client)(nil)
)

// New creates a Client authenticating with creds.
//
// Parameters:
//   - creds: Resolved bearer credentials (must carry a token)
//   - opts: Optional configuration
//
// Returns:
//   - *Client: Ready client
//   - error: ErrNoToken when creds are empty
//
// Example:
//
//	client, err := timeline.New(creds,
//	    timeline.WithLimiter(rate.NewLimiter(5, 5)),
//	    timeline.WithLogger(logger),
//	)
//	it := client.Events(ref)
//	for it.Next(ctx) {
//	    fmt.Println(it.Event())
//	}
func New(creds types.Credentials, opts ...Option) (*Client, error) {
	if creds.IsZero() {
		return nil, ErrNoToken
	}

	o := clientOptions{
		endpoint:  DefaultEndpoint,
		pageSize:  MaxPageSize,
		retryBase: 500 * time.Millisecond,
		retryMax:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if o.limiter == nil {
		o.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if o.pageSize <= 0 || o.pageSize > MaxPageSize {
		o.pageSize = MaxPageSize
	}
	if o.maxRetries < 0 {
		o.maxRetries = 0
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}

	return &Client{
		endpoint:       o.endpoint,
		httpClient:     o.httpClient,
		creds:          creds,
		limiter:        o.limiter,
		pageSize:       o.pageSize,
		requestTimeout: o.requestTimeout,
		maxRetries:     o.maxRetries,
		retry:          newRetryPolicy(o.retryBase, o.retryMax, o.retrySeed),
		logger:         o.logger,
		metrics:        o.metrics,
		now:            time.Now,
	}, nil
}

// Events returns a lazy iterator over the assignment events of ref.
//
// No request is made until the first call to Next.
func (c *Client) Events(ref types.ItemRef) types.EventIterator {
	return newIterator(c, ref, c.metrics)
}

// fetchPage requests the page after the given cursor, retrying transient
// failures when retries are enabled.
func (c *Client) fetchPage(ctx context.Context, ref types.ItemRef, after string) (*page, error) {
	var prev time.Duration

	for attempt := 0; ; attempt++ {
		p, err := c.doRequest(ctx, ref, after)
		if err == nil {
			return p, nil
		}
		if attempt >= c.maxRetries || !types.IsRetryable(err) {
			return nil, err
		}

		var advised time.Duration
		var apiErr *types.APIError
		if errors.As(err, &apiErr) {
			advised = apiErr.RetryAfter
		}
		delay, ok := c.retry.next(prev, advised)
		if !ok {
			c.logger.Warn("server-advised wait exceeds retry max delay, giving up",
				"item", ref.String(),
				"retry_after", delay,
				"max_delay", c.retry.maxDelay,
			)
			return nil, err
		}
		prev = delay

		c.logger.Warn("timeline request failed, retrying",
			"item", ref.String(),
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// doRequest performs exactly one page request.
func (c *Client) doRequest(ctx context.Context, ref types.ItemRef, after string) (*page, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &types.APIError{
			Kind: types.ErrKindRateLimited,
			Op:   opFetchPage,
			Item: ref,
			Err:  fmt.Errorf("wait for request budget: %w", err),
		}
	}
	c.metrics.RecordRateLimitWait(time.Since(waitStart).Seconds())

	vars := queryVariables{Owner: ref.Owner, Name: ref.Repo, Number: ref.Number, First: c.pageSize}
	if after != "" {
		vars.After = &after
	}
	payload, err := json.Marshal(graphQLRequest{Query: assigneeQuery, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	reqCtx := ctx
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &types.APIError{Kind: types.ErrKindNetwork, Op: opFetchPage, Item: ref, Err: err}
	}
	req.Header.Set("Authorization", c.creds.AuthorizationHeader())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	p, err := c.roundTrip(ctx, req, ref)
	outcome := "ok"
	if err != nil {
		outcome = types.KindOf(err).String()
	}
	c.metrics.RecordRequest(outcome, time.Since(start).Seconds())

	return p, err
}

func (c *Client) roundTrip(ctx context.Context, req *http.Request, ref types.ItemRef) (*page, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &types.APIError{Kind: types.ErrKindNetwork, Op: opFetchPage, Item: ref, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &types.APIError{Kind: types.ErrKindNetwork, Op: opFetchPage, Item: ref, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classifyStatus(resp, body, c.now())
		apiErr.Op = opFetchPage
		apiErr.Item = ref

		return nil, apiErr
	}

	p, err := decodePage(body)
	if err != nil {
		var apiErr *types.APIError
		if errors.As(err, &apiErr) {
			apiErr.Op = opFetchPage
			apiErr.Item = ref
			apiErr.Status = resp.StatusCode
		}

		return nil, err
	}

	return p, nil
}
