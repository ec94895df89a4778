package hibp

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces outbound requests so that every handle sharing it stays
// within a requests-per-minute quota. Grants are serialized: two consecutive
// grants are always at least MinInterval apart, no matter how many
// goroutines wait concurrently.
type RateLimiter struct {
	rpm     int
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter for the given requests-per-minute quota.
// A non-positive rpm disables limiting entirely.
func NewRateLimiter(rpm int) *RateLimiter {
	if rpm <= 0 {
		return &RateLimiter{rpm: 0, limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	interval := time.Minute / time.Duration(rpm)
	return &RateLimiter{
		rpm:     rpm,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// RPM returns the configured rate limit in requests per minute.
// Zero means unlimited.
func (r *RateLimiter) RPM() int {
	return r.rpm
}

// MinInterval returns the minimum spacing enforced between two requests.
func (r *RateLimiter) MinInterval() time.Duration {
	if r.rpm <= 0 {
		return 0
	}
	return time.Minute / time.Duration(r.rpm)
}

// Wait blocks until the next request may be sent, then consumes the slot.
// If ctx is cancelled while waiting, the slot is handed back and no state
// is consumed.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// delayAt reports how long a request arriving at t would have to wait, and
// consumes the slot at that time. It exists so tests can exercise the
// interval math against synthetic timestamps instead of sleeping.
func (r *RateLimiter) delayAt(t time.Time) time.Duration {
	rsv := r.limiter.ReserveN(t, 1)
	return rsv.DelayFrom(t)
}
