package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codilore/codilore/internal/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Run all pending migrations against the configured durable store
(STORE_DRIVER=sqlite or postgres).`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Read(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Store.Validate(); err != nil {
		return err
	}
	if cfg.Driver == config.DriverMemory {
		return errors.New("the memory store has no schema; set STORE_DRIVER to sqlite or postgres")
	}
	setupLogging(cfg.Log.Level)

	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	cmd.Println("Running migrations...")
	if err := store.db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
