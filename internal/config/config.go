// Package config provides configuration management for the application.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Defaults applied when neither flags, environment, nor config file set
// a value.
const (
	DefaultCacheBackend = "bolt"
	DefaultCachePath    = ".ghstats/cache.db"
	DefaultHistoryPath  = ".ghstats/history.db"
	DefaultCacheTTL     = time.Hour
	DefaultServeAddr    = ":8080"
	DefaultRedisAddr    = "localhost:6379"
)

// Config holds the application configuration.
type Config struct {
	// Token is the GitHub bearer token; empty selects anonymous mode.
	Token string

	// CacheBackend selects the cache store: memory, bolt, or redis.
	CacheBackend string

	// CachePath is the bbolt cache file location.
	CachePath string

	// CacheTTL is the lifetime of cached API responses.
	CacheTTL time.Duration

	// HistoryPath is the SQLite history database location.
	HistoryPath string

	// RedisAddr is the Redis address for the redis cache backend.
	RedisAddr string

	// ServeAddr is the HTTP listen address for serve mode.
	ServeAddr string

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string

	// LogPretty enables human-readable console logging.
	LogPretty bool
}

// Load reads configuration from an optional config file and the
// environment. Environment variables use the GHSTATS_ prefix, except
// GITHUB_TOKEN which is honored under its conventional name.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("ghstats")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/ghstats")
	// The config file is optional.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetDefault("cache_backend", DefaultCacheBackend)
	v.SetDefault("cache_path", DefaultCachePath)
	v.SetDefault("cache_ttl", DefaultCacheTTL)
	v.SetDefault("history_path", DefaultHistoryPath)
	v.SetDefault("redis_addr", DefaultRedisAddr)
	v.SetDefault("serve_addr", DefaultServeAddr)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)

	v.SetEnvPrefix("GHSTATS")
	v.AutomaticEnv()

	token := v.GetString("token")
	if token == "" {
		// Conventional variable shared with other GitHub tooling.
		tv := viper.New()
		tv.AutomaticEnv()
		token = tv.GetString("GITHUB_TOKEN")
	}

	return &Config{
		Token:        token,
		CacheBackend: v.GetString("cache_backend"),
		CachePath:    v.GetString("cache_path"),
		CacheTTL:     v.GetDuration("cache_ttl"),
		HistoryPath:  v.GetString("history_path"),
		RedisAddr:    v.GetString("redis_addr"),
		ServeAddr:    v.GetString("serve_addr"),
		LogLevel:     v.GetString("log_level"),
		LogPretty:    v.GetBool("log_pretty"),
	}, nil
}
