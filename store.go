package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codilore/codilore/internal/config"
	"github.com/codilore/codilore/internal/domain"
	"github.com/codilore/codilore/internal/repository/memory"
	"github.com/codilore/codilore/internal/repository/postgres"
	"github.com/codilore/codilore/internal/repository/sqlite"
)

// credentialStore pairs the store with the database behind it. db is nil
// for the in-memory driver.
type credentialStore struct {
	users domain.CredentialStore
	db    domain.Database
}

func (s *credentialStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// openStore connects to the configured backend. Durable backends are
// returned unmigrated.
func openStore(ctx context.Context, cfg config.Store) (*credentialStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory credential store; accounts are lost on restart")
		return &credentialStore{users: memory.NewUserStore()}, nil

	case config.DriverSQLite:
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		return &credentialStore{users: db.Users(), db: db}, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return &credentialStore{users: db.Users(), db: db}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
