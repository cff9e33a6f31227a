// Package config loads runtime settings from defaults, an optional config
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MinJWTSecretLength is the shortest accepted HMAC-SHA256 signing secret.
const MinJWTSecretLength = 32

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
	ErrShortJWTSecret   = fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", MinJWTSecretLength)
)

type (
	Config struct {
		HTTP
		Auth
		Store
		RateLimit
		Log
	}

	HTTP struct {
		Host            string
		Port            int
		ShutdownTimeout time.Duration
	}
	Auth struct {
		JWTSecret       string
		BcryptCost      int
		TokenTTL        time.Duration
		HashConcurrency int
	}
	Store struct {
		Driver      string // memory, sqlite or postgres
		SQLitePath  string
		PostgresURL string
	}
	RateLimit struct {
		Enabled bool
		RPS     float64 // tokens refilled per second per client
		Burst   float64
		// RedisURL switches to a fixed window of Burst requests per Window,
		// shared across instances.
		RedisURL string
		Window   time.Duration
	}
	Log struct {
		Level slog.Level
	}
)

// Addr returns the listen address.
func (h HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("host", "")
	v.SetDefault("port", 8080)
	v.SetDefault("shutdown_timeout", "5s")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("token_ttl", "168h") // 7 days
	v.SetDefault("hash_concurrency", runtime.GOMAXPROCS(0))

	v.SetDefault("store_driver", DriverMemory)
	v.SetDefault("database_path", "codilore.db")
	v.SetDefault("database_url", "")

	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_rps", 0.5)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("rate_limit_redis_url", "")
	v.SetDefault("rate_limit_window", "1m")

	v.SetDefault("log_level", "info")
	return v
}

// Load reads and validates configuration. configFile may be empty; when set,
// its values sit between the defaults and the environment.
func Load(configFile string) (*Config, error) {
	cfg, err := Read(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for commands that only need a subset of
// the settings.
func Read(configFile string) (*Config, error) {
	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		HTTP: HTTP{
			Host:            v.GetString("host"),
			Port:            v.GetInt("port"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Auth: Auth{
			JWTSecret:       v.GetString("jwt_secret"),
			BcryptCost:      v.GetInt("bcrypt_cost"),
			TokenTTL:        v.GetDuration("token_ttl"),
			HashConcurrency: v.GetInt("hash_concurrency"),
		},
		Store: Store{
			Driver:      strings.ToLower(v.GetString("store_driver")),
			SQLitePath:  v.GetString("database_path"),
			PostgresURL: v.GetString("database_url"),
		},
		RateLimit: RateLimit{
			Enabled:  v.GetBool("rate_limit_enabled"),
			RPS:      v.GetFloat64("rate_limit_rps"),
			Burst:    v.GetFloat64("rate_limit_burst"),
			RedisURL: v.GetString("rate_limit_redis_url"),
			Window:   v.GetDuration("rate_limit_window"),
		},
		Log: Log{Level: level},
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use. A missing
// signing secret is fatal; there is no built-in fallback.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if len(c.JWTSecret) < MinJWTSecretLength {
		return ErrShortJWTSecret
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.HashConcurrency < 1 {
		return fmt.Errorf("HASH_CONCURRENCY must be at least 1, got %d", c.HashConcurrency)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}

	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS < 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("invalid rate limit: rps=%v burst=%v", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	if c.RateLimit.Enabled && c.RateLimit.RedisURL != "" && c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window)
	}
	return nil
}

// Validate checks that the selected driver has what it needs to connect.
func (s Store) Validate() error {
	switch s.Driver {
	case DriverMemory:
	case DriverSQLite:
		if s.SQLitePath == "" {
			return errors.New("DATABASE_PATH is required for the sqlite store")
		}
	case DriverPostgres:
		if s.PostgresURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", s.Driver)
	}
	return nil
}
