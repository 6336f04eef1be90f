package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"project-status-tracker/internal/cli"
	"project-status-tracker/internal/config"
	"project-status-tracker/internal/storage"
	"project-status-tracker/internal/wiring"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := wiring.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	app := &cli.App{Engine: rt.Engine}
	if cfg.PostgresDSN != "" {
		app.Migrate = func(ctx context.Context) error {
			return storage.MigrateFromDSN(ctx, cfg.PostgresDSN, cfg.MigrationsDir)
		}
	}
	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
