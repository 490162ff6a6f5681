package ratelimit

import (
	"strings"

	"github.com/menuqr/menuqr/internal/config"
)

// SettingsConfig is the limiter configuration in effect.
type SettingsConfig struct {
	Limit         int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// SettingsFromConfig normalizes the rate-limit section of the server config.
func SettingsFromConfig(cfg config.RateLimitConfig) SettingsConfig {
	out := SettingsConfig{
		Limit:         cfg.PerSecond,
		RedisEnabled:  cfg.Redis.Enabled,
		RedisAddr:     strings.TrimSpace(cfg.Redis.Addr),
		RedisPassword: strings.TrimSpace(cfg.Redis.Password),
		RedisDB:       cfg.Redis.DB,
		RedisPrefix:   strings.TrimSpace(cfg.Redis.Prefix),
	}
	if out.Limit < 0 {
		out.Limit = 0
	}
	if out.RedisDB < 0 {
		out.RedisDB = 0
	}
	if out.RedisPrefix == "" {
		out.RedisPrefix = config.DefaultRedisPrefix
	}
	if out.RedisAddr == "" {
		out.RedisEnabled = false
	}
	return out
}

// StaticSettings returns a provider that always yields cfg.
func StaticSettings(cfg SettingsConfig) SettingsProvider {
	return func() SettingsConfig { return cfg }
}

// DefaultSettings is the in-memory limiter at the default rate.
func DefaultSettings() SettingsConfig {
	return SettingsConfig{Limit: config.DefaultRateLimit, RedisPrefix: config.DefaultRedisPrefix}
}
