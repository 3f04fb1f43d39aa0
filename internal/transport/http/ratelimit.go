package http

import (
	"sync/atomic"
	"time"
)

// rateLimiter caps inbound events per connection within a fixed window.
// A zero or negative limit disables it. allow runs on the read loop
// while the reset goroutine zeroes the count, so the count is atomic.
type rateLimiter struct {
	limit int64
	count atomic.Int64
	reset *time.Ticker
}

func newRateLimiter(limit int) *rateLimiter {
	return newRateLimiterWindow(limit, time.Minute)
}

func newRateLimiterWindow(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{}
	}
	return &rateLimiter{
		limit: int64(limit),
		reset: time.NewTicker(window),
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	return r.count.Add(1) <= r.limit
}

// startReset zeroes the count every window until stop is closed.
func (r *rateLimiter) startReset(stop <-chan struct{}) {
	if r == nil || r.reset == nil {
		return
	}
	go func() {
		for {
			select {
			case <-r.reset.C:
				r.count.Store(0)
			case <-stop:
				r.reset.Stop()
				return
			}
		}
	}()
}
