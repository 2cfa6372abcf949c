// Package ratelimit throttles outbound requests per upstream host using a
// token bucket for each host.
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps an independent token bucket per host.
// A zero rps disables limiting entirely.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a limiter allowing rps requests per second per host with the given burst.
func New(rps float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Enabled reports whether the limiter throttles anything.
func (h *HostLimiter) Enabled() bool {
	return h != nil && h.limit > 0
}

// Allow reports whether a request to host may go out now, consuming a token if so.
func (h *HostLimiter) Allow(host string) bool {
	if !h.Enabled() {
		return true
	}
	return h.forHost(host).Allow()
}

// Wait blocks until a request to host may go out or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if !h.Enabled() {
		return nil
	}
	return h.forHost(host).Wait(ctx)
}

// WaitURL is Wait keyed by the host of rawURL.
func (h *HostLimiter) WaitURL(ctx context.Context, rawURL string) error {
	if !h.Enabled() {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return h.Wait(ctx, u.Host)
}

func (h *HostLimiter) forHost(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.limit, h.burst)
		h.limiters[host] = l
	}
	return l
}
