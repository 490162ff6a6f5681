package ratelimit

import (
	"context"
	"sync"
	"time"
)

// pruneEvery is how many windows pass between sweeps of idle keys.
const pruneEvery = 60

type memoryEntry struct {
	window int64
	count  int
}

// MemoryLimiter implements a fixed-window in-memory rate limiter.
type MemoryLimiter struct {
	mu        sync.Mutex
	counters  map[string]*memoryEntry
	lastPrune int64
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*memoryEntry),
	}
}

// Allow counts the request in the current second. A denied request does not
// consume budget.
func (l *MemoryLimiter) Allow(_ context.Context, decision Decision, now time.Time) (Result, error) {
	if !decision.Enforced() {
		return Result{Allowed: true}, nil
	}
	key, limit := decision.Key(), decision.Limit
	sec, reset := window(now)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(sec)
	entry := l.counters[key]
	if entry == nil || entry.window != sec {
		entry = &memoryEntry{window: sec}
		l.counters[key] = entry
	}
	if entry.count >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	entry.count++
	return Result{Allowed: true, Remaining: limit - entry.count, Reset: reset}, nil
}

// pruneLocked drops counters whose window has passed. Diners arrive from many
// addresses, so keys would otherwise accumulate for the life of the process.
func (l *MemoryLimiter) pruneLocked(sec int64) {
	if sec-l.lastPrune < pruneEvery {
		return
	}
	l.lastPrune = sec
	for key, entry := range l.counters {
		if entry.window < sec {
			delete(l.counters, key)
		}
	}
}

// Len reports how many keys are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
