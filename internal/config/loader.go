package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// SIMPLEWEBSERVER_SERVER_PORT=9000.
const EnvPrefix = "SIMPLEWEBSERVER"

// SetDefaults installs the built-in defaults on v. Command line flags and
// environment variables layer on top.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.bind", DefaultBind)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.root", DefaultRoot)
	v.SetDefault("server.default_document", DefaultDocument)
	v.SetDefault("server.read_timeout", DefaultReadTimeout.String())
	v.SetDefault("server.max_request_bytes", DefaultMaxRequestBytes)
	v.SetDefault("server.max_conns", DefaultMaxConns)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("ratelimit.limit", DefaultRateLimit)
	v.SetDefault("ratelimit.window", DefaultWindow.String())
	v.SetDefault("ratelimit.penalty", DefaultPenalty.String())
	v.SetDefault("ratelimit.store", "memory")
	v.SetDefault("ratelimit.redis.addr", "")
	v.SetDefault("ratelimit.redis.password", "")
	v.SetDefault("ratelimit.redis.db", 0)
	v.SetDefault("ratelimit.idle_ttl", DefaultIdleTTL.String())
	v.SetDefault("ratelimit.sweep_every", DefaultSweepEvery.String())

	v.SetDefault("blacklist", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.quiet", false)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("ops.enabled", false)
	v.SetDefault("ops.host", "127.0.0.1")
	v.SetDefault("ops.port", 9090)
	v.SetDefault("ops.rps", 5.0)
	v.SetDefault("ops.burst", 10)
}

// BindEnv wires SIMPLEWEBSERVER_* environment variables into v, with dots
// and dashes mapped to underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// FromViper decodes v into a validated Config. Duration fields accept Go
// duration strings ("30s", "3m") and the blacklist accepts a comma separated
// string from the environment.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
