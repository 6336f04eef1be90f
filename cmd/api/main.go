package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"project-status-tracker/internal/api"
	"project-status-tracker/internal/config"
	"project-status-tracker/internal/wiring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	rt, err := wiring.Build(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("build runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	h := api.NewHandler(api.Options{
		AllowedUploadBytes: cfg.AllowedUploadBytes,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
	}, rt.Engine, rt)
	router := api.NewRouter(h)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.HTTPPort, "model", rt.Catalog.Model())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
}
