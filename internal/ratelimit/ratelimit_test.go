package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/menuqr/menuqr/internal/config"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	diner := Resolve(2, 0, "1.2.3.4")

	for i := 0; i < 2; i++ {
		result, errAllow := limiter.Allow(ctx, diner, now)
		if errAllow != nil || !result.Allowed {
			t.Fatalf("expected request %d allowed, got %+v err=%v", i+1, result, errAllow)
		}
	}
	blocked, _ := limiter.Allow(ctx, diner, now.Add(500*time.Millisecond))
	if blocked.Allowed {
		t.Fatalf("expected third request in the same second to be blocked")
	}
	if !blocked.Reset.Equal(now.Add(time.Second)) {
		t.Fatalf("expected reset at next second, got %v", blocked.Reset)
	}
	other, _ := limiter.Allow(ctx, Resolve(2, 0, "5.6.7.8"), now)
	if !other.Allowed {
		t.Fatalf("expected keys to be counted separately")
	}
	next, _ := limiter.Allow(ctx, diner, now.Add(time.Second))
	if !next.Allowed || next.Remaining != 1 {
		t.Fatalf("expected a fresh window, got %+v", next)
	}
}

func TestMemoryLimiterPrunesIdleKeys(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	_, _ = limiter.Allow(ctx, Resolve(5, 0, "a"), now)
	_, _ = limiter.Allow(ctx, Resolve(5, 0, "b"), now)
	if limiter.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", limiter.Len())
	}
	_, _ = limiter.Allow(ctx, Resolve(5, 0, "c"), now.Add(2*pruneEvery*time.Second))
	if limiter.Len() != 1 {
		t.Fatalf("expected idle keys pruned, got %d", limiter.Len())
	}
}

func TestResolveScopes(t *testing.T) {
	owner := Resolve(10, 7, "1.2.3.4")
	if owner.Scope != ScopeUser || owner.Limit != 10*authenticatedMultiplier {
		t.Fatalf("expected user scope, got %+v", owner)
	}
	if owner.Key() != "u:7" || owner.Scope.String() != "user" {
		t.Fatalf("unexpected user key %q (%s)", owner.Key(), owner.Scope)
	}
	diner := Resolve(10, 0, " 1.2.3.4 ")
	if diner.Key() != "ip:1.2.3.4" || diner.Scope.String() != "client" {
		t.Fatalf("unexpected client key %q (%s)", diner.Key(), diner.Scope)
	}
	if disabled := Resolve(0, 0, "1.2.3.4"); disabled.Enforced() || disabled.Key() != "" {
		t.Fatalf("expected disabled limit to produce no key, got %+v", disabled)
	}
	if anonymous := Resolve(10, 0, "  "); anonymous.Enforced() {
		t.Fatalf("expected no budget without a client address, got %+v", anonymous)
	}
}

func TestRedisWindowKeyNamespacesScopes(t *testing.T) {
	limiter := NewRedisLimiter(nil, " menuqr:rl: ")
	sec := int64(1_700_000_000)
	if key := limiter.windowKey(Resolve(10, 7, ""), sec); key != "menuqr:rl:u:7:1700000000" {
		t.Fatalf("unexpected user window key %q", key)
	}
	if key := limiter.windowKey(Resolve(10, 0, "1.2.3.4"), sec); key != "menuqr:rl:ip:1.2.3.4:1700000000" {
		t.Fatalf("unexpected client window key %q", key)
	}
	if key := NewRedisLimiter(nil, "").windowKey(Resolve(10, 0, "1.2.3.4"), sec); key != "ip:1.2.3.4:1700000000" {
		t.Fatalf("unexpected unprefixed key %q", key)
	}
	result, err := limiter.Allow(context.Background(), Resolve(10, 0, "1.2.3.4"), time.Unix(sec, 0))
	if err != nil || !result.Allowed {
		t.Fatalf("expected a limiter without a client to allow, got %+v err=%v", result, err)
	}
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := SettingsFromConfig(config.RateLimitConfig{
		PerSecond: -3,
		Redis:     config.RedisConfig{Enabled: true, Addr: "  ", DB: -1},
	})
	if cfg.Limit != 0 || cfg.RedisDB != 0 {
		t.Fatalf("expected negatives clamped, got %+v", cfg)
	}
	if cfg.RedisEnabled {
		t.Fatalf("expected redis disabled without an address")
	}
	if cfg.RedisPrefix != config.DefaultRedisPrefix {
		t.Fatalf("expected default prefix, got %q", cfg.RedisPrefix)
	}
}

func TestManagerFallsBackToMemoryWhenRedisIsDown(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dials := 0
	manager := NewManager(StaticSettings(SettingsConfig{
		Limit:        1,
		RedisEnabled: true,
		RedisAddr:    "127.0.0.1:1",
		RedisPrefix:  "test",
	}), func() time.Time { return now }, func(options *redis.Options) *redis.Client {
		dials++
		options.MaxRetries = -1
		options.DialTimeout = 100 * time.Millisecond
		return redis.NewClient(options)
	})

	_, first, errFirst := manager.Check(context.Background(), 0, "1.2.3.4")
	if errFirst != nil || !first.Allowed {
		t.Fatalf("expected first request allowed, got %+v err=%v", first, errFirst)
	}
	_, second, _ := manager.Check(context.Background(), 0, "1.2.3.4")
	if second.Allowed {
		t.Fatalf("expected memory fallback to enforce the limit")
	}
	if dials != 1 {
		t.Fatalf("expected breaker to stop redis retries, got %d dials", dials)
	}
}

func TestManagerNilAndDisabledAllow(t *testing.T) {
	var manager *Manager
	if _, result, _ := manager.Check(context.Background(), 0, "1.2.3.4"); !result.Allowed {
		t.Fatalf("expected nil manager to allow")
	}
	disabled := NewManager(StaticSettings(SettingsConfig{}), nil, nil)
	for i := 0; i < 5; i++ {
		if _, result, _ := disabled.Check(context.Background(), 0, "1.2.3.4"); !result.Allowed {
			t.Fatalf("expected zero limit to allow everything")
		}
	}
}

func TestManagerBudgetsOwnersAboveDiners(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	manager := NewManager(StaticSettings(SettingsConfig{Limit: 1}), func() time.Time { return now }, nil)
	ctx := context.Background()

	for i := 0; i < authenticatedMultiplier; i++ {
		if _, result, _ := manager.Check(ctx, 42, "1.2.3.4"); !result.Allowed {
			t.Fatalf("expected owner request %d allowed", i+1)
		}
	}
	decision, result, _ := manager.Check(ctx, 42, "1.2.3.4")
	if result.Allowed || decision.Scope != ScopeUser {
		t.Fatalf("expected owner budget exhausted, got %+v %+v", decision, result)
	}
	if _, diner, _ := manager.Check(ctx, 0, "1.2.3.4"); !diner.Allowed {
		t.Fatalf("expected the anonymous budget on the same address to be separate")
	}
}
