package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	TrustedPlatform string
	TrustedProxies  []string
}

// PostgresConfig with an empty DSN runs the service on in-memory stores.
type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig is optional; an empty Addr leaves the service without redis.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

type HashConfig struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

type SecurityConfig struct {
	SessionTTL        time.Duration
	BestEffortSession bool
	PasswordHash      HashConfig
	SessionHash       HashConfig
}

type RateLimitConfig struct {
	Backend       string
	Limit         int
	Window        time.Duration
	SweepSchedule string
	RedisPrefix   string
}

type JobsConfig struct {
	Enabled              bool
	SessionSweepSchedule string
}

// AdminConfig seeds one admin account at start-up when both fields are set.
// An existing account is left untouched.
type AdminConfig struct {
	BootstrapUsername string
	BootstrapPassword string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Log              LogConfig
	Security         SecurityConfig
	RateLimit        RateLimitConfig
	Jobs             JobsConfig
	Admin            AdminConfig
	AllowCORSOrigins []string
}

var envKeyReplacer = strings.NewReplacer(".", "_")

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	return load(v)
}

// LoadFile reads an explicit config file instead of searching the default paths.
func LoadFile(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*AppConfig, error) {
	v.SetEnvPrefix("STELLARREG")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("security.sessionttl must be positive")
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("ratelimit.limit must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.window must be positive")
	}
	if (c.Admin.BootstrapUsername == "") != (c.Admin.BootstrapPassword == "") {
		return fmt.Errorf("admin.bootstrapusername and admin.bootstrappassword must be set together")
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("ratelimit.backend redis requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown ratelimit.backend %q", c.RateLimit.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.trustedplatform", "")
	v.SetDefault("http.trustedproxies", []string{})

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.automigrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dialtimeout", "5s")

	v.SetDefault("log.level", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsizemb", 50)
	v.SetDefault("log.maxbackups", 10)
	v.SetDefault("log.compress", true)

	v.SetDefault("security.sessionttl", "24h")
	v.SetDefault("security.besteffortsession", false)
	v.SetDefault("security.passwordhash.time", 3)
	v.SetDefault("security.passwordhash.memory", 64*1024)
	v.SetDefault("security.passwordhash.threads", 2)
	v.SetDefault("security.passwordhash.keylen", 32)
	v.SetDefault("security.passwordhash.saltlen", 16)
	v.SetDefault("security.sessionhash.time", 1)
	v.SetDefault("security.sessionhash.memory", 16*1024)
	v.SetDefault("security.sessionhash.threads", 2)
	v.SetDefault("security.sessionhash.keylen", 32)
	v.SetDefault("security.sessionhash.saltlen", 16)

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.limit", 10)
	v.SetDefault("ratelimit.window", "60s")
	v.SetDefault("ratelimit.sweepschedule", "0 * * * * *") // every minute
	v.SetDefault("ratelimit.redisprefix", "ratelimit:search")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.sessionsweepschedule", "0 0 * * * *") // hourly

	v.SetDefault("admin.bootstrapusername", "")
	v.SetDefault("admin.bootstrappassword", "")

	v.SetDefault("allowcorsorigins", []string{})
}
