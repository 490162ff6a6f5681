package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// RetryPolicy bounds retries of transient store failures.
type RetryPolicy struct {
	Attempts  int           // Total attempts including the first.
	BaseDelay time.Duration // Delay before the second attempt.
	MaxDelay  time.Duration // Upper bound for a single backoff.
}

// DefaultRetryPolicy is used by WithRetry.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:  3,
	BaseDelay: 50 * time.Millisecond,
	MaxDelay:  500 * time.Millisecond,
}

// WithRetry runs fn and retries it with exponential backoff while it fails
// with a transient store error. Other errors are returned immediately. When
// attempts are exhausted the last error is returned unchanged.
func WithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return DefaultRetryPolicy.Do(ctx, fn)
}

// Do runs fn under the policy. A cancelled ctx stops the wait between
// attempts and returns the context error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	_, errRetry := backoff.Retry(ctx, func() (struct{}, error) {
		errRun := fn(ctx)
		if errRun != nil && !IsTransient(errRun) {
			return struct{}{}, backoff.Permanent(errRun)
		}
		return struct{}{}, errRun
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(errRun error, next time.Duration) {
			log.WithError(errRun).Debugf("db: transient failure, retrying in %s", next)
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(errRetry, &permanent) {
		return permanent.Unwrap()
	}
	return errRetry
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		b.InitialInterval = p.BaseDelay
	}
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	return b
}

// IsTransient reports whether err looks like a connection-level failure that
// is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception. 57P01: admin shutdown.
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01"
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "prepared statement"):
		return true
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "sqlite_busy"):
		return true
	case strings.Contains(msg, "connection reset by peer"), strings.Contains(msg, "broken pipe"):
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key")
}
