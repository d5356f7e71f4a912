// Package config holds the typed application configuration and its viper
// loader. Values merge from three layers: built-in defaults, an optional
// YAML config file, and SIMPLEWEBSERVER_* environment variables; command
// line flags override all of them.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Defaults mirrored by SetDefaults.
const (
	DefaultBind            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultRoot            = "."
	DefaultDocument        = "index.html"
	DefaultReadTimeout     = 30 * time.Second
	DefaultMaxRequestBytes = 4096
	DefaultMaxConns        = 256

	DefaultRateLimit  = 120
	DefaultWindow     = time.Minute
	DefaultPenalty    = 180 * time.Second
	DefaultIdleTTL    = 10 * time.Minute
	DefaultSweepEvery = time.Minute
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Blacklist []string        `mapstructure:"blacklist"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Ops       OpsConfig       `mapstructure:"ops"`
}

// ServerConfig controls the file-serving listener.
type ServerConfig struct {
	Bind            string        `mapstructure:"bind"`
	Port            int           `mapstructure:"port"`
	Root            string        `mapstructure:"root"`
	DefaultDocument string        `mapstructure:"default_document"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	MaxRequestBytes int           `mapstructure:"max_request_bytes"`
	MaxConns        int           `mapstructure:"max_conns"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Bind, strconv.Itoa(s.Port))
}

// RateLimitConfig controls the per-client request gate. Limit 0 disables
// limiting.
type RateLimitConfig struct {
	Limit      int64         `mapstructure:"limit"`
	Window     time.Duration `mapstructure:"window"`
	Penalty    time.Duration `mapstructure:"penalty"`
	Store      string        `mapstructure:"store"`
	Redis      RedisConfig   `mapstructure:"redis"`
	IdleTTL    time.Duration `mapstructure:"idle_ttl"`
	SweepEvery time.Duration `mapstructure:"sweep_every"`
}

// RedisConfig points the shared limiter store at a Redis instance.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig controls the zap logger. Quiet disables per-request logging
// entirely; File adds a rotating JSON sink next to the console output.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Quiet      bool   `mapstructure:"quiet"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// OpsConfig controls the optional operational HTTP endpoint (health,
// version, stats). It listens on its own address, separate from the file
// server, and is guarded by a small token bucket.
type OpsConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Host    string  `mapstructure:"host"`
	Port    int     `mapstructure:"port"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// Addr returns the ops listen address in host:port form.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Root == "" {
		return fmt.Errorf("server.root must not be empty")
	}
	if c.Server.MaxRequestBytes < 64 {
		return fmt.Errorf("server.max_request_bytes %d too small (minimum 64)", c.Server.MaxRequestBytes)
	}
	if c.Server.MaxConns < 1 {
		return fmt.Errorf("server.max_conns must be at least 1")
	}
	if c.RateLimit.Limit < 0 {
		return fmt.Errorf("ratelimit.limit must not be negative")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.window must be positive")
	}
	if c.RateLimit.Penalty <= 0 {
		return fmt.Errorf("ratelimit.penalty must be positive")
	}
	switch c.RateLimit.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("ratelimit.store %q unknown (want memory or redis)", c.RateLimit.Store)
	}
	if c.RateLimit.Store == "redis" && c.RateLimit.Redis.Addr == "" {
		return fmt.Errorf("ratelimit.redis.addr required when ratelimit.store is redis")
	}
	if c.Ops.Enabled {
		if c.Ops.Port < 0 || c.Ops.Port > 65535 {
			return fmt.Errorf("ops.port %d out of range", c.Ops.Port)
		}
		if c.Ops.Port == c.Server.Port && c.Ops.Host == c.Server.Bind {
			return fmt.Errorf("ops address %s collides with server address", c.Ops.Addr())
		}
	}
	return nil
}
