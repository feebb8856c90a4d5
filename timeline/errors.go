package timeline

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yasuyuky/gh-chk/types"
)

// ErrNoToken is returned by New when the credentials carry no token.
var ErrNoToken = errors.New("timeline: credentials carry no token")

const maxErrorBody = 200

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n] + "..."
}

// classifyStatus maps a non-2xx HTTP response to an *types.APIError.
func classifyStatus(resp *http.Response, body []byte, now time.Time) *types.APIError {
	status := resp.StatusCode
	msg := truncate(strings.TrimSpace(string(body)), maxErrorBody)
	cause := fmt.Errorf("%s: %s", http.StatusText(status), msg)

	e := &types.APIError{Status: status, Err: cause}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = types.ErrKindAuth
	case status == http.StatusTooManyRequests:
		e.Kind = types.ErrKindRateLimited
		e.RetryAfter = retryAfter(resp.Header, now)
	case status == http.StatusForbidden:
		if isRateLimitResponse(resp.Header, msg) {
			e.Kind = types.ErrKindRateLimited
			e.RetryAfter = retryAfter(resp.Header, now)
		} else {
			e.Kind = types.ErrKindAuth
		}
	case status == http.StatusNotFound:
		e.Kind = types.ErrKindNotFound
	case status >= http.StatusInternalServerError:
		e.Kind = types.ErrKindNetwork
	default:
		e.Kind = types.ErrKindMalformed
	}

	return e
}

// isRateLimitResponse reports whether a 403 is a primary or secondary rate limit.
func isRateLimitResponse(h http.Header, msg string) bool {
	if h.Get("X-RateLimit-Remaining") == "0" || h.Get("Retry-After") != "" {
		return true
	}

	return strings.Contains(strings.ToLower(msg), "rate limit")
}

// retryAfter returns the server-advised wait from Retry-After (seconds or
// HTTP date) or, when the primary budget is exhausted, X-RateLimit-Reset.
func retryAfter(h http.Header, now time.Time) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			return max(at.Sub(now), 0)
		}
	}

	if h.Get("X-RateLimit-Remaining") == "0" {
		if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			return max(time.Unix(reset, 0).Sub(now), 0)
		}
	}

	return 0
}

// classifyGraphQLErrors maps the errors array of a 200 response.
func classifyGraphQLErrors(errs []graphQLError) *types.APIError {
	msgs := make([]string, 0, len(errs))
	kind := types.ErrKindMalformed
	for i, e := range errs {
		msgs = append(msgs, e.Message)
		if i > 0 {
			continue
		}
		switch e.Type {
		case "NOT_FOUND":
			kind = types.ErrKindNotFound
		case "RATE_LIMITED":
			kind = types.ErrKindRateLimited
		case "FORBIDDEN", "INSUFFICIENT_SCOPES":
			kind = types.ErrKindAuth
		case "SERVICE_UNAVAILABLE", "INTERNAL":
			kind = types.ErrKindNetwork
		}
	}

	return &types.APIError{Kind: kind, Err: fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))}
}
