package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, DriverMemory, cfg.Driver)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.RateLimit.RedisURL)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.GreaterOrEqual(t, cfg.HashConcurrency, 1)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("DATABASE_PATH", "/tmp/x.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoad_MissingSecretIsFatal(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load("")
	require.ErrorIs(t, err, ErrShortJWTSecret)
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "7000")

	path := filepath.Join(t.TempDir(), "codilore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 6000\nbcrypt_cost: 11\nstore_driver: postgres\ndatabase_url: postgres://localhost/codilore\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port, "environment overrides the file")
	assert.Equal(t, 11, cfg.BcryptCost)
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "postgres://localhost/codilore", cfg.PostgresURL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTP:      HTTP{Port: 8080},
			Auth:      Auth{JWTSecret: testSecret, BcryptCost: 12, TokenTTL: time.Hour, HashConcurrency: 1},
			Store:     Store{Driver: DriverMemory},
			RateLimit: RateLimit{Enabled: true, RPS: 1, Burst: 5},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 3 }},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = 15 }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"no hash concurrency", func(c *Config) { c.HashConcurrency = 0 }},
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Driver = "mongo" }},
		{"postgres without url", func(c *Config) { c.Driver = DriverPostgres }},
		{"sqlite without path", func(c *Config) { c.Driver = DriverSQLite }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"redis without window", func(c *Config) { c.RateLimit.RedisURL = "redis://localhost:6379/0" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_BadLogLevel(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := Load("")
	require.Error(t, err)
}

func TestRead_SkipsValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := Read("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Store.Validate())
}
