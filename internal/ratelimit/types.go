// Package ratelimit throttles callers with a fixed one-second window, kept in
// memory or shared through Redis.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter counts one request against a resolved decision.
type Limiter interface {
	Allow(ctx context.Context, decision Decision, now time.Time) (Result, error)
}

// Scope indicates who a limit is counted against.
type Scope int

const (
	ScopeNone Scope = iota
	// ScopeClient counts anonymous diners by client IP.
	ScopeClient
	// ScopeUser counts an authenticated account.
	ScopeUser
)

// String returns the metric label of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeClient:
		return "client"
	case ScopeUser:
		return "user"
	default:
		return "none"
	}
}

// Decision is the resolved limit for one request.
type Decision struct {
	Limit    int
	Scope    Scope
	UserID   uint64
	ClientIP string
}

// Enforced reports whether the decision counts against any budget.
func (d Decision) Enforced() bool {
	return d.Limit > 0 && d.Key() != ""
}

// window returns the current one-second window and when it ends.
func window(now time.Time) (int64, time.Time) {
	sec := now.Unix()
	return sec, time.Unix(sec+1, 0).UTC()
}
