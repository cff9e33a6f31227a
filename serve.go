package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codilore/codilore/internal/config"
	"github.com/codilore/codilore/internal/handler"
	"github.com/codilore/codilore/internal/observability"
	"github.com/codilore/codilore/internal/service"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. Durable stores are migrated before the
listener opens. JWT_SECRET must be set.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	if store.db != nil {
		if err := store.db.Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied", "driver", cfg.Driver)
	}

	metrics := observability.NewMetrics()

	authService, err := service.NewAuthService(store.users, cfg.JWTSecret, cfg.BcryptCost,
		service.WithTokenTTL(cfg.TokenTTL),
		service.WithHashConcurrency(int64(cfg.HashConcurrency)),
		service.WithHashObserver(metrics.HashDuration),
	)
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	var limiter handler.Limiter
	switch {
	case !cfg.RateLimit.Enabled:
	case cfg.RateLimit.RedisURL != "":
		rl, err := service.NewRedisLimiter(ctx, cfg.RateLimit.RedisURL, int64(cfg.RateLimit.Burst), cfg.RateLimit.Window)
		if err != nil {
			return fmt.Errorf("create rate limiter: %w", err)
		}
		defer rl.Close()
		limiter = rl
	default:
		tb := service.NewTokenBucket(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		defer tb.Close()
		limiter = tb
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.NewServerHandler(authService, limiter, metrics),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	return serve(ctx, srv, cfg.ShutdownTimeout)
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
