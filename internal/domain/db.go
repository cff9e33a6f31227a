package domain

import "context"

// Database defines lifecycle operations for a durable credential backend.
// Each implementation (SQLite, Postgres) owns its own migration files.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
