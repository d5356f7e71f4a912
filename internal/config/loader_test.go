package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestFromViper(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := FromViper(newTestViper())
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "127.0.0.1", cfg.Server.Bind)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, ".", cfg.Server.Root)
		assert.Equal(t, "index.html", cfg.Server.DefaultDocument)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 4096, cfg.Server.MaxRequestBytes)
		assert.Equal(t, 256, cfg.Server.MaxConns)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		assert.Equal(t, int64(120), cfg.RateLimit.Limit)
		assert.Equal(t, time.Minute, cfg.RateLimit.Window)
		assert.Equal(t, 180*time.Second, cfg.RateLimit.Penalty)
		assert.Equal(t, "memory", cfg.RateLimit.Store)
		assert.Equal(t, 10*time.Minute, cfg.RateLimit.IdleTTL)
		assert.Equal(t, time.Minute, cfg.RateLimit.SweepEvery)

		assert.Empty(t, cfg.Blacklist)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.False(t, cfg.Logging.Quiet)
		assert.Equal(t, "", cfg.Logging.File)

		assert.False(t, cfg.Ops.Enabled)
		assert.Equal(t, 9090, cfg.Ops.Port)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("SIMPLEWEBSERVER_SERVER_PORT", "3000")
		t.Setenv("SIMPLEWEBSERVER_RATELIMIT_LIMIT", "7")
		t.Setenv("SIMPLEWEBSERVER_LOGGING_LEVEL", "warn")
		t.Setenv("SIMPLEWEBSERVER_BLACKLIST", "secret.html,passwords.txt")

		cfg, err := FromViper(newTestViper())
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, int64(7), cfg.RateLimit.Limit)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, []string{"secret.html", "passwords.txt"}, cfg.Blacklist)
	})

	t.Run("DurationsFromEnv", func(t *testing.T) {
		t.Setenv("SIMPLEWEBSERVER_SERVER_READ_TIMEOUT", "45s")
		t.Setenv("SIMPLEWEBSERVER_RATELIMIT_PENALTY", "5m")

		cfg, err := FromViper(newTestViper())
		require.NoError(t, err)

		assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 5*time.Minute, cfg.RateLimit.Penalty)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		body := `server:
  bind: 0.0.0.0
  port: 8888
ratelimit:
  limit: 60
  penalty: 2m
blacklist:
  - secret.html
logging:
  level: debug
`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		v := newTestViper()
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := FromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Bind)
		assert.Equal(t, 8888, cfg.Server.Port)
		assert.Equal(t, int64(60), cfg.RateLimit.Limit)
		assert.Equal(t, 2*time.Minute, cfg.RateLimit.Penalty)
		assert.Equal(t, []string{"secret.html"}, cfg.Blacklist)
		assert.Equal(t, "debug", cfg.Logging.Level)

		// File values must not clobber untouched defaults.
		assert.Equal(t, 4096, cfg.Server.MaxRequestBytes)
	})

	t.Run("FlagOverridesFile", func(t *testing.T) {
		v := newTestViper()
		v.Set("server.port", 9001)

		cfg, err := FromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 9001, cfg.Server.Port)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := FromViper(newTestViper())
		require.NoError(t, err)
		return cfg
	}

	t.Run("DefaultsAreValid", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"PortTooLarge", func(c *Config) { c.Server.Port = 70000 }, "out of range"},
		{"EmptyRoot", func(c *Config) { c.Server.Root = "" }, "root"},
		{"TinyRequestCap", func(c *Config) { c.Server.MaxRequestBytes = 10 }, "too small"},
		{"ZeroConns", func(c *Config) { c.Server.MaxConns = 0 }, "max_conns"},
		{"NegativeLimit", func(c *Config) { c.RateLimit.Limit = -1 }, "negative"},
		{"ZeroWindow", func(c *Config) { c.RateLimit.Window = 0 }, "window"},
		{"UnknownStore", func(c *Config) { c.RateLimit.Store = "etcd" }, "unknown"},
		{"RedisWithoutAddr", func(c *Config) { c.RateLimit.Store = "redis" }, "redis.addr"},
		{"OpsCollision", func(c *Config) {
			c.Ops.Enabled = true
			c.Ops.Host = c.Server.Bind
			c.Ops.Port = c.Server.Port
		}, "collides"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAddr(t *testing.T) {
	s := ServerConfig{Bind: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", s.Addr())

	o := OpsConfig{Host: "::1", Port: 9090}
	assert.Equal(t, "[::1]:9090", o.Addr())
}
