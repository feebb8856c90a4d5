package timeline

import (
	rand "math/rand/v2"
	"sync"
	"time"
)

// jitterBackoff implements decorrelated jitter backoff ("Full Jitter" variant) with a cap.
// See: https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
//
// Given previous delay (prev), computes next delay as:
//
//	next = min(cap, base + rand.Int64N(prev*multiplier-base)) with guards
//
// Behavior:
//   - If prev <= 0, start from base
//   - Multiplier <= 1.0 falls back to 1.0 (no growth)
//   - Cap <= base returns cap
func jitterBackoff(prev, base time.Duration, mult float64, capDur time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if mult < 1.0 {
		mult = 1.0
	}
	if capDur > 0 && capDur < base {
		return capDur
	}
	if prev <= 0 {
		return base
	}

	maxDuration := time.Duration(float64(prev)*mult) - base
	if maxDuration <= 0 {
		maxDuration = base
	}

	var jitter int64
	if rng != nil {
		jitter = rng.Int64N(int64(maxDuration))
	} else {
		jitter = rand.Int64N(int64(maxDuration)) //nolint:gosec // non-crypto backoff jitter
	}
	next := base + time.Duration(jitter)
	if capDur > 0 && next > capDur {
		return capDur
	}

	return next
}

// newRetryRNG returns a deterministic RNG only when a non-zero seed is provided.
// When seed == 0 it returns nil so callers use the package-level PRNG instead.
//
//nolint:gosec
func newRetryRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)
	s2 := s1 ^ 0x9e3779b97f4a7c15

	return rand.New(rand.NewPCG(s1, s2))
}

// retryPolicy computes successive retry delays for one page request.
//
// The RNG is shared by every worker using the client, so access is locked.
type retryPolicy struct {
	base       time.Duration
	maxDelay   time.Duration
	multiplier float64

	mu  sync.Mutex
	rng *rand.Rand
}

func newRetryPolicy(base, maxDelay time.Duration, seed int64) *retryPolicy {
	return &retryPolicy{
		base:       base,
		maxDelay:   maxDelay,
		multiplier: 3.0,
		rng:        newRetryRNG(seed),
	}
}

// next returns the delay following prev. A server-advised retryAfter longer
// than the computed delay wins. ok is false when the advice exceeds maxDelay;
// the request should then fail instead of parking the worker.
func (p *retryPolicy) next(prev, retryAfter time.Duration) (d time.Duration, ok bool) {
	if p.maxDelay > 0 && retryAfter > p.maxDelay {
		return retryAfter, false
	}

	p.mu.Lock()
	d = jitterBackoff(prev, p.base, p.multiplier, p.maxDelay, p.rng)
	p.mu.Unlock()

	return max(d, retryAfter), true
}
