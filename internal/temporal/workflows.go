package temporal

import (
	"strings"

	"go.temporal.io/sdk/workflow"

	"project-status-tracker/internal/domain"
)

const ProjectUploadWorkflowName = "ProjectUploadWorkflow"

// WorkflowInput describes an upload whose bytes are already in the bucket.
type WorkflowInput struct {
	ProjectID    string
	UploadID     string
	DocumentType domain.DocumentType
	FileName     string
	ObjectKey    string
	Size         int64
}

type WorkflowResult struct {
	ProjectID        string
	UploadID         string
	PreviousStatusID domain.StatusID
	StatusID         domain.StatusID
	Advanced         bool
}

// WorkflowID is stable per upload so a replayed bucket event cannot start
// a second execution.
func WorkflowID(prefix, projectID, uploadID string) string {
	return strings.Join([]string{prefix, projectID, uploadID}, "-")
}

func ProjectUploadWorkflow(ctx workflow.Context, input WorkflowInput) (WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	var recorded RecordDocumentOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyRecordDocument), (*Activities).RecordDocumentActivity, RecordDocumentInput{
		ProjectID:    input.ProjectID,
		UploadID:     input.UploadID,
		DocumentType: input.DocumentType,
		FileName:     input.FileName,
		ObjectKey:    input.ObjectKey,
		Size:         input.Size,
	}).Get(ctx, &recorded); err != nil {
		return WorkflowResult{}, err
	}

	var advanced AdvanceStatusOutput
	if err := workflow.ExecuteActivity(mustActivityContext(ctx, ActivityPolicyAdvanceStatus), (*Activities).AdvanceStatusActivity, AdvanceStatusInput{
		ProjectID: input.ProjectID,
		Document:  recorded.Document,
	}).Get(ctx, &advanced); err != nil {
		return WorkflowResult{}, err
	}

	logger.Info("upload processed",
		"project_id", input.ProjectID,
		"upload_id", input.UploadID,
		"status", advanced.StatusID,
		"advanced", advanced.Advanced,
	)
	return WorkflowResult{
		ProjectID:        input.ProjectID,
		UploadID:         recorded.Document.ID,
		PreviousStatusID: advanced.PreviousStatusID,
		StatusID:         advanced.StatusID,
		Advanced:         advanced.Advanced,
	}, nil
}
