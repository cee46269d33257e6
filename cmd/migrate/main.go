// Package main applies pending database migrations and exits.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/adpilot/adpilot/internal/config"
	"github.com/adpilot/adpilot/internal/repository"
)

func main() {
	dir := flag.String("dir", "migrations", "directory containing .up.sql migration files")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DatabasePoolSize)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(ctx, *dir); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	logger.Info("migrations complete")
}
