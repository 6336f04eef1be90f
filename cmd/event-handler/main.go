package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"project-status-tracker/internal/config"
	"project-status-tracker/internal/events"
	"project-status-tracker/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.MinioEndpoint == "" {
		log.Fatalf("event-handler needs MINIO_ENDPOINT")
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	blobs, err := storage.NewMinioStore(connectCtx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
	cancel()
	if err != nil {
		logger.Error("connect minio", "error", err)
		os.Exit(1)
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		logger.Error("connect temporal", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	dispatcher := &events.Dispatcher{
		Starter:          temporalClient,
		TaskQueue:        cfg.TemporalTaskQueue,
		WorkflowIDPrefix: cfg.WorkflowIDPrefix,
		Logger:           logger,
	}
	source := events.NewMinioUploadEventSource(blobs.Client(), blobs.Bucket(), "", "", logger)

	logger.Info("event-handler listening for object-created events", "bucket", blobs.Bucket())
	err = source.Run(ctx, func(parent context.Context, event events.UploadEvent) error {
		execCtx, cancel := context.WithTimeout(parent, 15*time.Second)
		defer cancel()
		return dispatcher.Handle(execCtx, event)
	})
	if err != nil {
		logger.Error("event-handler stopped with error", "error", err)
		os.Exit(1)
	}
}
