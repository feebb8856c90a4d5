package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for gh-chk.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// Components wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Input and data errors.
var (
	// ErrInvalidItemRef is returned when an item identifier cannot be parsed or validated.
	ErrInvalidItemRef = errors.New("invalid item reference")

	// ErrInvalidSnapshot is returned when a snapshot fails validation.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Remote API error kinds. An *APIError matches the sentinel of its Kind with errors.Is.
var (
	// ErrNetwork indicates a transport failure or a server-side (5xx) error.
	ErrNetwork = errors.New("network error")

	// ErrAuth indicates an invalid, expired, or insufficiently scoped credential.
	ErrAuth = errors.New("authentication error")

	// ErrNotFound indicates the repository or item does not exist or is not accessible.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the remote API throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformed indicates an unexpected or unparseable response.
	ErrMalformed = errors.New("malformed response")
)

// ErrorKind classifies a tracking failure.
type ErrorKind int

const (
	// ErrKindUnknown is used for errors outside the remote API taxonomy
	// (cancellation, snapshot persistence failures).
	ErrKindUnknown ErrorKind = iota
	ErrKindNetwork
	ErrKindAuth
	ErrKindNotFound
	ErrKindRateLimited
	ErrKindMalformed
)

// String returns the short, stable name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindNetwork:
		return "network"
	case ErrKindAuth:
		return "auth"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindRateLimited:
		return "rate_limited"
	case ErrKindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Sentinel returns the sentinel error matching the kind, or nil for ErrKindUnknown.
func (k ErrorKind) Sentinel() error {
	switch k {
	case ErrKindNetwork:
		return ErrNetwork
	case ErrKindAuth:
		return ErrAuth
	case ErrKindNotFound:
		return ErrNotFound
	case ErrKindRateLimited:
		return ErrRateLimited
	case ErrKindMalformed:
		return ErrMalformed
	default:
		return nil
	}
}

// APIError is a classified failure talking to the remote API.
type APIError struct {
	// Kind is the taxonomy bucket of the failure.
	Kind ErrorKind

	// Op names the failed operation (e.g., "fetch timeline page").
	Op string

	// Item is the tracked item the request was made for.
	Item ItemRef

	// Status is the HTTP status code, 0 when no response was received.
	Status int

	// RetryAfter is the server-advised wait before retrying, 0 when unknown.
	RetryAfter time.Duration

	// Err is the underlying cause.
	Err error
}

// NewAPIError creates an APIError.
func NewAPIError(kind ErrorKind, op string, item ItemRef, err error) *APIError {
	return &APIError{Kind: kind, Op: op, Item: item, Err: err}
}

// Error implements error.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.Item, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the error's Kind.
func (e *APIError) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// KindOf returns the ErrorKind of err, or ErrKindUnknown when err carries no
// *APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return ErrKindUnknown
}

// IsRetryable reports whether err is a transient remote failure
// (network or rate limiting).
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case ErrKindNetwork, ErrKindRateLimited:
		return true
	default:
		return false
	}
}
