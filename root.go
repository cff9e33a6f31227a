package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Codilore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codilore",
		Short: "Codilore account and session-token service",
		Long: `Codilore serves account registration, login and bearer-token
session endpoints over HTTP/JSON.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}

// setupLogging installs the default logger: text on stdout, JSON on stderr.
func setupLogging(level slog.Level) {
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)
}
