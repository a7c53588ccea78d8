package bluesky

import (
	"context"

	"golang.org/x/time/rate"
)

// Default write budget: well under the PDS limit of 5000 points/hour, where a
// createRecord costs 3 points.
const (
	DefaultWriteRate  = 0.4
	DefaultWriteBurst = 3
)

// RateLimiter throttles write calls with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a RateLimiter allowing burst calls at once, then
// requestsPerSecond sustained.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Allow blocks until a token is available or ctx is done.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
