package ratelimit

import (
	"sync"
	"time"

	errs "biliguard/pkg/errors"
)

// Gate is an exponential-backoff admission gate for a rate-limited endpoint.
// It is not a blocking limiter: while a block is active callers are turned
// away immediately and should skip the work until a later cycle.
type Gate struct {
	baseDelay    time.Duration
	blockedSince time.Time // zero when no block is active
	waitLevel    int
	probing      bool
	now          func() time.Time
	mu           sync.Mutex
}

// NewGate creates a gate whose wait window starts at baseDelay and doubles
// with every failed recovery probe.
func NewGate(baseDelay time.Duration) *Gate {
	return &Gate{
		baseDelay: baseDelay,
		now:       time.Now,
	}
}

// Admit invokes call unless a block is active and its wait window has not
// elapsed. The first return value reports whether call ran to completion:
// false means either the gate is closed or call hit a fresh rate limit, and
// the caller should re-attempt on a later cycle. The gate never retries
// internally.
func (g *Gate) Admit(call func() error) (bool, error) {
	g.mu.Lock()
	now := g.now()
	if !g.blockedSince.IsZero() && now.Sub(g.blockedSince) < g.window() {
		g.mu.Unlock()
		return false, nil
	}
	g.mu.Unlock()

	err := call()

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil && errs.IsRateLimited(err) {
		// Raise the level only when a recovery probe failed; the first block
		// at a given level doesn't prove the window is too short.
		if g.probing {
			g.waitLevel++
		}
		g.blockedSince = g.now()
		g.probing = true
		return false, nil
	}

	if err == nil && g.probing {
		if g.waitLevel > 0 {
			g.waitLevel--
		}
		g.probing = false
		g.blockedSince = time.Time{}
	}

	return true, err
}

// window returns the current wait window, baseDelay * 2^waitLevel.
// Callers must hold g.mu.
func (g *Gate) window() time.Duration {
	return g.baseDelay * (1 << g.waitLevel)
}

// Blocked reports whether the gate is currently turning callers away
func (g *Gate) Blocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.blockedSince.IsZero() {
		return false
	}
	return g.now().Sub(g.blockedSince) < g.window()
}

// WaitLevel returns the current backoff level
func (g *Gate) WaitLevel() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waitLevel
}
