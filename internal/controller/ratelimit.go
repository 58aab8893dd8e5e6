package controller

import (
	"sync"
	"time"
)

// RateLimiter spaces out messages per key
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	now         func() time.Time
	lastSent    map[string]time.Time
}

// NewRateLimiter creates a rate limiter allowing one message per key every minInterval
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		minInterval: minInterval,
		now:         time.Now,
		lastSent:    make(map[string]time.Time),
	}
}

// Allow checks if enough time has passed since the last message for key.
// Returns true and records the send if so.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	lastTime, exists := rl.lastSent[key]
	if exists && now.Sub(lastTime) < rl.minInterval {
		return false
	}

	rl.lastSent[key] = now
	return true
}
