package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir so Load finds no config.yaml.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Security.SessionTTL)
	assert.False(t, cfg.Security.BestEffortSession)
	assert.Equal(t, uint32(64*1024), cfg.Security.PasswordHash.Memory)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.True(t, cfg.Jobs.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STELLARREG_ENVIRONMENT", "production")
	t.Setenv("STELLARREG_SECURITY_SESSIONTTL", "12h")
	t.Setenv("STELLARREG_RATELIMIT_LIMIT", "25")
	t.Setenv("STELLARREG_HTTP_TRUSTEDPLATFORM", "CF-Connecting-IP")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 12*time.Hour, cfg.Security.SessionTTL)
	assert.Equal(t, 25, cfg.RateLimit.Limit)
	assert.Equal(t, "CF-Connecting-IP", cfg.HTTP.TrustedPlatform)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stellarreg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: staging
postgres:
  dsn: postgres://reg:reg@db:5432/reg
redis:
  addr: cache:6379
ratelimit:
  backend: redis
  window: 30s
http:
  trustedproxies: ["10.0.0.0/8"]
allowcorsorigins: ["https://stellar.example.edu"]
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "postgres://reg:reg@db:5432/reg", cfg.Postgres.DSN)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.HTTP.TrustedProxies)
	assert.Equal(t, []string{"https://stellar.example.edu"}, cfg.AllowCORSOrigins)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			Security:  SecurityConfig{SessionTTL: time.Hour},
			RateLimit: RateLimitConfig{Backend: "memory", Limit: 10, Window: time.Minute},
		}
	}

	testCases := []struct {
		name   string
		mutate func(c *AppConfig)
		ok     bool
	}{
		{name: "Valid", mutate: func(*AppConfig) {}, ok: true},
		{name: "ZeroTTL", mutate: func(c *AppConfig) { c.Security.SessionTTL = 0 }},
		{name: "ZeroLimit", mutate: func(c *AppConfig) { c.RateLimit.Limit = 0 }},
		{name: "NegativeWindow", mutate: func(c *AppConfig) { c.RateLimit.Window = -time.Second }},
		{name: "RedisWithoutAddr", mutate: func(c *AppConfig) { c.RateLimit.Backend = "redis" }},
		{name: "RedisWithAddr", mutate: func(c *AppConfig) {
			c.RateLimit.Backend = "redis"
			c.Redis.Addr = "cache:6379"
		}, ok: true},
		{name: "UnknownBackend", mutate: func(c *AppConfig) { c.RateLimit.Backend = "memcached" }},
		{name: "BootstrapWithoutPassword", mutate: func(c *AppConfig) { c.Admin.BootstrapUsername = "ops" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
