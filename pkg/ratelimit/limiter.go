package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages multiple rate limiters for different vendor APIs
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a vendor
// requestsPerSecond: the rate limit (e.g., 10 means 10 requests per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (m *MultiLimiter) Allow(name string) bool {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	return limiter.Allow()
}

// Default rate limiter names, one per contest platform
const (
	LimiterCodeforces   = "codeforces"
	LimiterLeetCode     = "leetcode"
	LimiterAtCoder      = "atcoder"
	LimiterCodeChef     = "codechef"
	LimiterGFG          = "gfg"
	LimiterCodingNinjas = "codingninjas"
)

// NewDefaultLimiter creates a limiter with polite per-vendor rate limits.
// The scheduler only hits each vendor a couple of times per hour, so these
// limits mostly matter for manual trigger endpoints and the CLI.
func NewDefaultLimiter() *MultiLimiter {
	m := NewMultiLimiter()

	// Codeforces asks for at most one request per two seconds
	m.AddLimiter(LimiterCodeforces, 0.5, 1)

	// LeetCode GraphQL: be conservative, it blocks aggressive clients
	m.AddLimiter(LimiterLeetCode, 0.5, 1)

	// AtCoder is scraped HTML - one page per scrape, keep it slow
	m.AddLimiter(LimiterAtCoder, 0.2, 1)

	// CodeChef public API
	m.AddLimiter(LimiterCodeChef, 1, 2)

	// GeeksforGeeks practice API
	m.AddLimiter(LimiterGFG, 1, 2)

	// CodingNinjas public API
	m.AddLimiter(LimiterCodingNinjas, 1, 2)

	return m
}
