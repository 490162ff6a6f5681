package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	// redisPause is how long the manager counts in memory after Redis fails.
	redisPause = 30 * time.Second
	// redisDialTimeout bounds the ping when (re)connecting.
	redisDialTimeout = 2 * time.Second
)

// SettingsProvider supplies the latest settings snapshot.
type SettingsProvider func() SettingsConfig

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

// redisTarget identifies the Redis instance a connected limiter talks to.
type redisTarget struct {
	addr     string
	password string
	db       int
	prefix   string
}

func (cfg SettingsConfig) redisTarget() redisTarget {
	return redisTarget{addr: cfg.RedisAddr, password: cfg.RedisPassword, db: cfg.RedisDB, prefix: cfg.RedisPrefix}
}

// Manager resolves who a request is counted against and counts it in Redis
// when configured, or in process memory otherwise. While Redis is failing
// the manager pauses it and counts in memory.
type Manager struct {
	settings SettingsProvider
	now      func() time.Time
	memory   *MemoryLimiter
	dial     RedisClientFactory

	mu          sync.Mutex
	shared      *RedisLimiter
	sharedFor   redisTarget
	pausedUntil time.Time
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(settings SettingsProvider, now func() time.Time, dial RedisClientFactory) *Manager {
	if settings == nil {
		settings = StaticSettings(DefaultSettings())
	}
	if now == nil {
		now = time.Now
	}
	if dial == nil {
		dial = redis.NewClient
	}
	return &Manager{settings: settings, now: now, memory: NewMemoryLimiter(), dial: dial}
}

// Limit returns the configured per-second budget for anonymous clients.
func (m *Manager) Limit() int {
	if m == nil {
		return 0
	}
	return m.settings().Limit
}

// Check resolves the scope of a request and counts it against that scope.
func (m *Manager) Check(ctx context.Context, userID uint64, clientIP string) (Decision, Result, error) {
	if m == nil {
		return Decision{}, Result{Allowed: true}, nil
	}
	cfg := m.settings()
	decision := Resolve(cfg.Limit, userID, clientIP)
	if !decision.Enforced() {
		return decision, Result{Allowed: true}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	now := m.now()
	if cfg.RedisEnabled {
		if shared := m.sharedLimiter(ctx, cfg, now); shared != nil {
			result, errAllow := shared.Allow(ctx, decision, now)
			if errAllow == nil {
				return decision, result, nil
			}
			m.pause(errAllow, now)
		}
	}
	result, errAllow := m.memory.Allow(ctx, decision, now)
	return decision, result, errAllow
}

// sharedLimiter returns the Redis limiter for cfg, connecting on first use or
// after the target changed. It returns nil while Redis is paused.
func (m *Manager) sharedLimiter(ctx context.Context, cfg SettingsConfig, now time.Time) *RedisLimiter {
	target := cfg.redisTarget()

	m.mu.Lock()
	if now.Before(m.pausedUntil) {
		m.mu.Unlock()
		return nil
	}
	if m.shared != nil && m.sharedFor == target {
		shared := m.shared
		m.mu.Unlock()
		return shared
	}
	stale := m.shared
	m.shared = nil
	m.mu.Unlock()

	if stale != nil {
		_ = stale.Close()
	}
	shared, errConnect := m.connect(ctx, target)
	if errConnect != nil {
		m.pause(errConnect, now)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shared != nil {
		_ = shared.Close()
		return m.shared
	}
	m.shared, m.sharedFor = shared, target
	return shared
}

func (m *Manager) connect(ctx context.Context, target redisTarget) (*RedisLimiter, error) {
	if target.addr == "" {
		return nil, errors.New("rate limit redis: missing address")
	}
	client := m.dial(&redis.Options{Addr: target.addr, Password: target.password, DB: target.db})
	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		_ = client.Close()
		return nil, errPing
	}
	return NewRedisLimiter(client, target.prefix), nil
}

// pause stops using Redis for redisPause. Failures during a pause are not
// logged again.
func (m *Manager) pause(err error, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now.Before(m.pausedUntil) {
		return
	}
	m.pausedUntil = now.Add(redisPause)
	log.WithError(err).Warnf("rate limit: redis unavailable, counting in memory until %s", m.pausedUntil.Format(time.RFC3339))
}
