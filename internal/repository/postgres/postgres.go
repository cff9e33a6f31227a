// Package postgres implements the credential store on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"

	"github.com/codilore/codilore/internal/repository/postgres/migrations"
)

// DB wraps a pgx connection pool and hands out repositories.
type DB struct {
	Pool *pgxpool.Pool
}

// connectBackoff paces ping attempts while the database comes up.
func connectBackoff() retry.Backoff {
	return retry.WithMaxRetries(5, retry.WithCappedDuration(5*time.Second, retry.NewExponential(250*time.Millisecond)))
}

// New connects to the database at dsn and verifies the connection, retrying
// the ping with exponential backoff.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	attempt := 0
	err = retry.Do(ctx, connectBackoff(), func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			slog.Warn("postgres not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Migrate applies the embedded schema migrations through a database/sql
// handle sharing the pool.
func (d *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(d.Pool)
	defer sqlDB.Close()

	return migrations.Run(ctx, sqlDB)
}

// Users returns the credential store backed by this database.
func (d *DB) Users() *UserRepository {
	return NewUserRepository(d.Pool)
}

// Close releases all pooled connections.
func (d *DB) Close() error {
	d.Pool.Close()
	return nil
}
