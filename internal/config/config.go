package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath    = "CONFIG_PATH"
	EnvDBConnection  = "DB_CONNECTION"
	EnvJWTSecret     = "JWT_SECRET"
	EnvJWTExpiry     = "JWT_EXPIRY"
	EnvPublicBaseURL = "PUBLIC_BASE_URL"
	EnvLogLevel      = "LOG_LEVEL"
	EnvRedisAddr     = "REDIS_ADDR"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 7 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// Defaults applied by LoadServerConfig.
const (
	DefaultPublicBaseURL     = "http://localhost:8318"
	DefaultLogLevel          = "info"
	DefaultLogFile           = "logs/menuqr.log"
	DefaultRateLimit         = 10
	DefaultRedisPrefix       = "menuqr:rl"
	DefaultHealthSlowAfter   = time.Second
	defaultGrandfatherLayout = "2006-01-02"
)

// RedisConfig holds the optional Redis backend for rate limiting.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RateLimitConfig controls per-client limits on public write endpoints.
type RateLimitConfig struct {
	PerSecond int         `yaml:"per-second"`
	Redis     RedisConfig `yaml:"redis"`
}

// HealthConfig controls the health endpoint thresholds.
type HealthConfig struct {
	SlowThreshold time.Duration `yaml:"slow-threshold"`
}

// EntitlementConfig controls grandfathering of existing subscriptions.
type EntitlementConfig struct {
	// GrandfatherCutoff is a YYYY-MM-DD date; empty grandfathers everyone.
	GrandfatherCutoff string `yaml:"grandfather-cutoff"`
}

// ServerConfig holds everything the HTTP server needs besides DSN and JWT.
type ServerConfig struct {
	Host          string            `yaml:"host"`
	Port          int               `yaml:"port"`
	PublicBaseURL string            `yaml:"public-base-url"`
	Debug         bool              `yaml:"debug"`
	LogLevel      string            `yaml:"log-level"`
	LoggingToFile bool              `yaml:"logging-to-file"`
	LogFile       string            `yaml:"log-file"`
	RateLimit     RateLimitConfig   `yaml:"rate-limit"`
	Health        HealthConfig      `yaml:"health"`
	Entitlements  EntitlementConfig `yaml:"entitlements"`
}

// LoadServerConfig loads server settings from the YAML config file.
// A missing file yields defaults; a malformed file is an error.
func LoadServerConfig(configPath string) (ServerConfig, error) {
	result := ServerConfig{RateLimit: RateLimitConfig{PerSecond: -1}}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &result); errUnmarshal != nil {
			return ServerConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	} else if !os.IsNotExist(errRead) {
		return ServerConfig{}, fmt.Errorf("read config file: %w", errRead)
	}

	if baseURL := strings.TrimSpace(os.Getenv(EnvPublicBaseURL)); baseURL != "" {
		result.PublicBaseURL = baseURL
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		result.LogLevel = level
	}
	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		result.RateLimit.Redis.Addr = addr
		result.RateLimit.Redis.Enabled = true
	}

	result.PublicBaseURL = strings.TrimRight(strings.TrimSpace(result.PublicBaseURL), "/")
	if result.PublicBaseURL == "" {
		result.PublicBaseURL = DefaultPublicBaseURL
	}
	if strings.TrimSpace(result.LogLevel) == "" {
		result.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(result.LogFile) == "" {
		result.LogFile = DefaultLogFile
	}
	if result.RateLimit.PerSecond < 0 {
		result.RateLimit.PerSecond = DefaultRateLimit
	}
	if strings.TrimSpace(result.RateLimit.Redis.Prefix) == "" {
		result.RateLimit.Redis.Prefix = DefaultRedisPrefix
	}
	if result.RateLimit.Redis.DB < 0 {
		result.RateLimit.Redis.DB = 0
	}
	if result.Health.SlowThreshold <= 0 {
		result.Health.SlowThreshold = DefaultHealthSlowAfter
	}
	return result, nil
}

// GrandfatherCutoff parses the configured cutoff date. The zero time means
// every subscription is grandfathered.
func (c ServerConfig) GrandfatherCutoff() (time.Time, error) {
	raw := strings.TrimSpace(c.Entitlements.GrandfatherCutoff)
	if raw == "" {
		return time.Time{}, nil
	}
	cutoff, errParse := time.Parse(defaultGrandfatherLayout, raw)
	if errParse != nil {
		return time.Time{}, fmt.Errorf("parse grandfather-cutoff %q: %w", raw, errParse)
	}
	return cutoff.UTC(), nil
}

// ListenAddr returns host:port, falling back to the given port.
func (c ServerConfig) ListenAddr(defaultPort int) string {
	port := c.Port
	if port <= 0 {
		port = defaultPort
	}
	return strings.TrimSpace(c.Host) + ":" + strconv.Itoa(port)
}
