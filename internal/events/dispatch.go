package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	appTemporal "project-status-tracker/internal/temporal"
)

// WorkflowStarter is satisfied by client.Client.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

type Dispatcher struct {
	Starter          WorkflowStarter
	TaskQueue        string
	WorkflowIDPrefix string
	Logger           *slog.Logger
}

// Handle starts one ProjectUploadWorkflow per upload id. A redelivered
// event for an id that already ran is acknowledged without a new run.
func (d *Dispatcher) Handle(ctx context.Context, ev UploadEvent) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workflowID := appTemporal.WorkflowID(d.WorkflowIDPrefix, ev.ProjectID, ev.UploadID)

	_, err := d.Starter.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                                       workflowID,
		TaskQueue:                                d.TaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, appTemporal.ProjectUploadWorkflowName, appTemporal.WorkflowInput{
		ProjectID:    ev.ProjectID,
		UploadID:     ev.UploadID,
		DocumentType: ev.DocumentType,
		FileName:     ev.FileName,
		ObjectKey:    ev.ObjectKey,
		Size:         ev.Size,
	})
	var already *serviceerror.WorkflowExecutionAlreadyStarted
	switch {
	case errors.As(err, &already):
		logger.Info("workflow already started", "workflow_id", workflowID, "object_key", ev.ObjectKey)
		return nil
	case err != nil:
		return fmt.Errorf("start workflow %s: %w", workflowID, err)
	}
	logger.Info("workflow started", "workflow_id", workflowID, "object_key", ev.ObjectKey, "event", ev.EventName)
	return nil
}
