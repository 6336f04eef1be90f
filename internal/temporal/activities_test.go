package temporal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"project-status-tracker/internal/domain"
	"project-status-tracker/internal/faults"
	"project-status-tracker/internal/storage"
	tracker "project-status-tracker/internal/workflow"
)

type engineFixture struct {
	engine *tracker.Engine
	mem    *storage.MemoryStore
	script *faults.Script
}

func newEngineFixture(t require.TestingT, c *domain.Catalog) *engineFixture {
	f := &engineFixture{
		mem:    storage.NewMemoryStore(c.Initial().ID),
		script: faults.NewScript(),
	}
	seq := 0
	var mu sync.Mutex
	engine, err := tracker.New(tracker.Options{
		Catalog: c,
		Store:   storage.WithFaults(f.mem, f.script),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("tr-%d", seq)
		},
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

func (f *engineFixture) activities() *Activities {
	return &Activities{Engine: f.engine, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func uploadFor(dt domain.DocumentType) tracker.Upload {
	return tracker.Upload{FileName: string(dt) + ".pdf", DocumentType: dt}
}

func TestRecordDocumentActivityIsIdempotent(t *testing.T) {
	f := newEngineFixture(t, domain.LadderCatalog())
	acts := f.activities()
	in := RecordDocumentInput{
		ProjectID:    "p1",
		UploadID:     "u-1",
		DocumentType: domain.DocBidding,
		FileName:     "bid.pdf",
		ObjectKey:    "p1/bidding_document/u-1/bid.pdf",
		Size:         42,
	}

	first, err := acts.RecordDocumentActivity(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "u-1", first.Document.ID)
	require.Equal(t, in.ObjectKey, first.Document.ObjectKey)
	require.EqualValues(t, 42, first.Document.Size)

	second, err := acts.RecordDocumentActivity(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, first.Document.UploadedAt, second.Document.UploadedAt)

	docs, err := f.mem.ListDocuments(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestAdvanceStatusActivity(t *testing.T) {
	f := newEngineFixture(t, domain.LadderCatalog())
	acts := f.activities()

	rec, err := acts.RecordDocumentActivity(context.Background(), RecordDocumentInput{
		ProjectID: "p1", UploadID: "u-1", DocumentType: domain.DocBidding, FileName: "bid.pdf",
	})
	require.NoError(t, err)

	out, err := acts.AdvanceStatusActivity(context.Background(), AdvanceStatusInput{ProjectID: "p1", Document: rec.Document})
	require.NoError(t, err)
	require.True(t, out.Advanced)
	require.Equal(t, domain.StatusDraft, out.PreviousStatusID)
	require.Equal(t, domain.StatusBidding, out.StatusID)

	again, err := acts.AdvanceStatusActivity(context.Background(), AdvanceStatusInput{ProjectID: "p1", Document: rec.Document})
	require.NoError(t, err)
	require.False(t, again.Advanced)
	require.Equal(t, domain.StatusBidding, again.StatusID)
}

func TestActivityErrorsAreClassified(t *testing.T) {
	f := newEngineFixture(t, domain.LadderCatalog())
	acts := f.activities()

	_, err := acts.RecordDocumentActivity(context.Background(), RecordDocumentInput{
		ProjectID: "p1", UploadID: "u-1", DocumentType: "tax_document", FileName: "tax.pdf",
	})
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.True(t, appErr.NonRetryable())
	require.Equal(t, "unknown_document_type", appErr.Type())

	f.script.On(faults.OpAddDocument, true)
	_, err = acts.RecordDocumentActivity(context.Background(), RecordDocumentInput{
		ProjectID: "p1", UploadID: "u-2", DocumentType: domain.DocBidding, FileName: "bid.pdf",
	})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	require.False(t, errors.As(err, &appErr))
}

func TestActivityError(t *testing.T) {
	plain := errors.New("socket closed")
	require.Same(t, plain, activityError(plain))

	transient := fmt.Errorf("update: %w", domain.ErrUpdateUnavailable)
	require.Equal(t, transient, activityError(transient))

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, activityError(domain.ErrInvalidTransition), &appErr)
	require.True(t, appErr.NonRetryable())
	require.Equal(t, "invalid_transition", appErr.Type())
}

func TestRecordDocumentActivityRejectsReusedUploadID(t *testing.T) {
	f := newEngineFixture(t, domain.LadderCatalog())
	acts := f.activities()

	_, err := acts.RecordDocumentActivity(context.Background(), RecordDocumentInput{
		ProjectID: "p1", UploadID: "u-1", DocumentType: domain.DocBidding, FileName: "bid.pdf",
	})
	require.NoError(t, err)

	_, err = acts.RecordDocumentActivity(context.Background(), RecordDocumentInput{
		ProjectID: "p1", UploadID: "u-1", DocumentType: domain.DocVendorSelection, FileName: "vendor.pdf",
	})
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.True(t, appErr.NonRetryable())
	require.Equal(t, "upload_conflict", appErr.Type())
}
