// Package ratelimit implements the per-worker token bucket specified for
// capping request-per-second throughput inside a single worker process.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket guarded by a mutex, intended to be shared by
// every virtual user inside one worker. A rate of 0 disables the
// limiter (always admits).
type Limiter struct {
	mu         sync.Mutex
	rate       float64 // tokens/sec
	burst      float64 // max tokens
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// New creates a token bucket with the given rate (tokens/sec) and burst
// (max tokens). The bucket starts full.
func New(rate, burst float64) *Limiter {
	return &Limiter{
		rate:       rate,
		burst:      burst,
		tokens:     burst,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Acquire blocks until a token is available, or returns immediately if
// the limiter is disabled (rate == 0).
func (l *Limiter) Acquire() {
	for {
		wait, ok := l.tryAcquire()
		if ok {
			return
		}
		time.Sleep(wait)
	}
}

// tryAcquire refills the bucket, and either consumes a token (ok=true)
// or reports how long the caller should sleep before retrying.
func (l *Limiter) tryAcquire() (wait time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rate == 0 {
		return 0, true
	}

	now := l.now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	l.lastRefill = now
	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}

	if l.tokens >= 1 {
		l.tokens--
		return 0, true
	}

	deficit := 1 - l.tokens
	return time.Duration(deficit / l.rate * float64(time.Second)), false
}
