package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisWindowTTL keeps a window key alive past its second so late replicas
// still see it; the key name carries the second, so it is never reused.
const redisWindowTTL = 2 * time.Second

// redisCountScript mirrors MemoryLimiter: a request is admitted while the
// window count is below ARGV[1], and a denied request leaves the count as is.
// It returns {allowed, remaining}.
var redisCountScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= limit then
  return {0, 0}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {1, limit - current}
`)

// RedisLimiter counts decisions in Redis so every server instance shares the
// same per-account and per-client budgets.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter wraps client. Keys are namespaced under prefix.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: strings.Trim(strings.TrimSpace(prefix), ":")}
}

// Allow counts the request in the current second.
func (l *RedisLimiter) Allow(ctx context.Context, decision Decision, now time.Time) (Result, error) {
	if !decision.Enforced() || l == nil || l.client == nil {
		return Result{Allowed: true}, nil
	}
	sec, reset := window(now)
	reply, errRun := redisCountScript.Run(ctx, l.client,
		[]string{l.windowKey(decision, sec)},
		decision.Limit, redisWindowTTL.Milliseconds(),
	).Int64Slice()
	if errRun != nil {
		return Result{}, fmt.Errorf("rate limit redis: %w", errRun)
	}
	if len(reply) != 2 {
		return Result{}, fmt.Errorf("rate limit redis: unexpected reply %v", reply)
	}
	remaining := int(reply[1])
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: reply[0] == 1, Remaining: remaining, Reset: reset}, nil
}

// windowKey is "<prefix>:u:<id>:<sec>" or "<prefix>:ip:<addr>:<sec>".
func (l *RedisLimiter) windowKey(decision Decision, sec int64) string {
	key := decision.Key() + ":" + strconv.FormatInt(sec, 10)
	if l.prefix == "" {
		return key
	}
	return l.prefix + ":" + key
}

// Close releases the client.
func (l *RedisLimiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}
