package ai

import "time"

// BackoffPolicy maps (attempt number, error kind) to a wait duration.
// It is a pure value with no shared state; the zero value is not useful,
// use DefaultBackoff or construct explicitly.
//
// Rate-limit failures back off exponentially from a higher base with a
// higher cap, and honor a provider-suggested floor when one is supplied.
// Transient failures back off from a shorter base with a lower cap.
// Fatal kinds are never retried; callers branch before consulting the policy.
type BackoffPolicy struct {
	RateLimitBase time.Duration
	RateLimitCap  time.Duration
	TransientBase time.Duration
	TransientCap  time.Duration
}

// DefaultBackoff returns the policy shared by the resolver and the upsert stage.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		RateLimitBase: 2 * time.Second,
		RateLimitCap:  120 * time.Second,
		TransientBase: 500 * time.Millisecond,
		TransientCap:  30 * time.Second,
	}
}

// DelayFor returns the wait before the next attempt. attempt is 1-based.
// retryAfter is the provider-suggested floor for rate-limit responses,
// zero when the provider supplied none. Fatal kinds return zero.
func (p BackoffPolicy) DelayFor(attempt int, kind ErrorKind, retryAfter time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var base, ceiling time.Duration
	switch kind {
	case KindRateLimited:
		base, ceiling = p.RateLimitBase, p.RateLimitCap
	case KindTransient:
		base, ceiling = p.TransientBase, p.TransientCap
	default:
		return 0
	}

	// Exponential: base * 2^(attempt-1), guarding against overflow past the cap.
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= ceiling {
			delay = ceiling
			break
		}
	}
	if delay > ceiling {
		delay = ceiling
	}

	if kind == KindRateLimited && retryAfter > delay {
		delay = retryAfter
		if delay > ceiling {
			delay = ceiling
		}
	}

	return delay
}
