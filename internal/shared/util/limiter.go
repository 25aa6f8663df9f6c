package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter caps how often a repeated action, such as a watch-mode rebuild,
// may run. The burst is one.
type Limiter struct {
	inner     *rate.Limiter
	perMinute int
}

// NewPerMinute allows n actions per minute. A non-positive n disables
// limiting.
func NewPerMinute(n int) *Limiter {
	if n <= 0 {
		return &Limiter{inner: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{
		inner:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1),
		perMinute: n,
	}
}

// PerMinute is the configured rate; zero means unlimited.
func (l *Limiter) PerMinute() int { return l.perMinute }

// Allow consumes a token if one is available now.
func (l *Limiter) Allow() bool {
	return l.inner.Allow()
}

// Delay reports how long until a token is available, without consuming it.
func (l *Limiter) Delay() time.Duration {
	r := l.inner.Reserve()
	defer r.Cancel()
	return r.Delay()
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
