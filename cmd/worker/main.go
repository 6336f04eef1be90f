package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"project-status-tracker/internal/config"
	appTemporal "project-status-tracker/internal/temporal"
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

	activities := &appTemporal.Activities{Engine: rt.Engine, Logger: logger}

	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(appTemporal.ProjectUploadWorkflow, workflow.RegisterOptions{Name: appTemporal.ProjectUploadWorkflowName})
	w.RegisterActivity(activities.RecordDocumentActivity)
	w.RegisterActivity(activities.AdvanceStatusActivity)

	logger.Info("worker running", "task_queue", cfg.TemporalTaskQueue, "model", rt.Catalog.Model())
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
}
