package temporal

import (
	"context"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"project-status-tracker/internal/domain"
	tracker "project-status-tracker/internal/workflow"
)

// Engine is the slice of the tracker engine the activities drive.
type Engine interface {
	RecordDocument(ctx context.Context, projectID string, up tracker.Upload) (domain.UploadedDocument, error)
	AdvanceForDocument(ctx context.Context, projectID string, doc domain.UploadedDocument) (tracker.UploadResult, error)
}

type Activities struct {
	Engine Engine
	Logger *slog.Logger
}

type RecordDocumentInput struct {
	ProjectID    string
	UploadID     string
	DocumentType domain.DocumentType
	FileName     string
	ObjectKey    string
	Size         int64
}

type RecordDocumentOutput struct {
	Document domain.UploadedDocument
}

type AdvanceStatusInput struct {
	ProjectID string
	Document  domain.UploadedDocument
}

type AdvanceStatusOutput struct {
	PreviousStatusID domain.StatusID
	StatusID         domain.StatusID
	Advanced         bool
}

func (a *Activities) RecordDocumentActivity(ctx context.Context, input RecordDocumentInput) (RecordDocumentOutput, error) {
	doc, err := a.Engine.RecordDocument(ctx, input.ProjectID, tracker.Upload{
		ID:           input.UploadID,
		FileName:     input.FileName,
		DocumentType: input.DocumentType,
		Size:         input.Size,
		ObjectKey:    input.ObjectKey,
	})
	if err != nil {
		a.logger().Warn("record document failed", "project_id", input.ProjectID, "upload_id", input.UploadID, "error", err)
		return RecordDocumentOutput{}, activityError(err)
	}
	return RecordDocumentOutput{Document: doc}, nil
}

func (a *Activities) AdvanceStatusActivity(ctx context.Context, input AdvanceStatusInput) (AdvanceStatusOutput, error) {
	res, err := a.Engine.AdvanceForDocument(ctx, input.ProjectID, input.Document)
	if err != nil {
		a.logger().Warn("advance status failed", "project_id", input.ProjectID, "upload_id", input.Document.ID, "error", err)
		return AdvanceStatusOutput{}, activityError(err)
	}
	return AdvanceStatusOutput{
		PreviousStatusID: res.PreviousStatusID,
		StatusID:         res.StatusID,
		Advanced:         res.Advanced,
	}, nil
}

func (a *Activities) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// activityError stops retries for domain errors that a resubmission
// cannot fix. Transient and unclassified errors go back to Temporal as is.
func activityError(err error) error {
	if domain.Retryable(err) {
		return err
	}
	code := domain.ErrorCode(err)
	if code == "internal" {
		return err
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), code, err)
}
