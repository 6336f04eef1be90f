// Package workflow owns every project status change. Callers record
// uploads and request transitions through Engine; stores never move a
// project on their own.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"project-status-tracker/internal/cache"
	"project-status-tracker/internal/domain"
	"project-status-tracker/internal/storage"
)

// Upload is one upload attempt. ID identifies the attempt: submitting the
// same ID again records nothing new and only re-runs the status step.
type Upload struct {
	ID           string
	FileName     string
	DocumentType domain.DocumentType
	Content      []byte
	Size         int64
	// ObjectKey is set when the bytes already live in the bucket.
	ObjectKey string
}

type StatusChange struct {
	PreviousStatusID domain.StatusID `json:"previous_status_id"`
	StatusID         domain.StatusID `json:"status_id"`
	Advanced         bool            `json:"advanced"`
}

type UploadResult struct {
	Document domain.UploadedDocument `json:"document"`
	StatusChange
}

type Options struct {
	Catalog *domain.Catalog
	Store   storage.Store
	// Blobs is optional; without it only the upload record is kept.
	Blobs  storage.BlobStore
	Cache  cache.Cache
	Logger *slog.Logger
	NewID  func() string
}

type Engine struct {
	catalog *domain.Catalog
	store   storage.Store
	blobs   storage.BlobStore
	cache   cache.Cache
	log     *slog.Logger
	newID   func() string
	locks   *keyedMutex
}

func New(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, errors.New("workflow: catalog is required")
	}
	if opts.Store == nil {
		return nil, errors.New("workflow: store is required")
	}
	e := &Engine{
		catalog: opts.Catalog,
		store:   opts.Store,
		blobs:   opts.Blobs,
		cache:   opts.Cache,
		log:     opts.Logger,
		newID:   opts.NewID,
		locks:   newKeyedMutex(),
	}
	if e.cache == nil {
		e.cache = cache.Nop
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e, nil
}

func (e *Engine) Catalog() *domain.Catalog {
	return e.catalog
}

// RecordUploadAndAdvance stores the document and then moves the project to
// the status the document unlocks. When the status step fails the document
// stays recorded and the result still carries it; retrying with the same
// Upload.ID, or calling Reconcile, closes the gap.
func (e *Engine) RecordUploadAndAdvance(ctx context.Context, projectID string, up Upload) (UploadResult, error) {
	unlock := e.locks.Lock(projectID)
	defer unlock()

	doc, project, err := e.recordDocument(ctx, projectID, up)
	if err != nil {
		return UploadResult{}, err
	}
	change, err := e.advanceForDocument(ctx, project, doc)
	return UploadResult{Document: doc, StatusChange: change}, err
}

// RecordDocument is the first half of RecordUploadAndAdvance.
func (e *Engine) RecordDocument(ctx context.Context, projectID string, up Upload) (domain.UploadedDocument, error) {
	unlock := e.locks.Lock(projectID)
	defer unlock()

	doc, _, err := e.recordDocument(ctx, projectID, up)
	return doc, err
}

// AdvanceForDocument is the second half of RecordUploadAndAdvance for a
// document that is already stored. The record is read back from the
// project's own documents; doc only names it.
func (e *Engine) AdvanceForDocument(ctx context.Context, projectID string, doc domain.UploadedDocument) (UploadResult, error) {
	unlock := e.locks.Lock(projectID)
	defer unlock()

	stored, err := e.store.GetDocument(ctx, projectID, doc.ID)
	if err != nil {
		return UploadResult{}, classify(fmt.Errorf("get document %s: %w", doc.ID, err), domain.ErrStorageUnavailable)
	}
	doc = stored
	if _, ok := e.catalog.StatusByDocumentType(doc.DocumentType); !ok && e.catalog.Model() == domain.ModelLadder {
		return UploadResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownDocumentType, doc.DocumentType)
	}
	project, err := e.loadProject(ctx, projectID)
	if err != nil {
		return UploadResult{}, err
	}
	change, err := e.advanceForDocument(ctx, project, doc)
	return UploadResult{Document: doc, StatusChange: change}, err
}

func (e *Engine) recordDocument(ctx context.Context, projectID string, up Upload) (domain.UploadedDocument, domain.Project, error) {
	if !e.catalog.KnownDocumentType(up.DocumentType) {
		return domain.UploadedDocument{}, domain.Project{}, fmt.Errorf("%w: %q", domain.ErrUnknownDocumentType, up.DocumentType)
	}

	project, err := e.loadProject(ctx, projectID)
	if err != nil {
		return domain.UploadedDocument{}, domain.Project{}, err
	}
	if e.catalog.Model() == domain.ModelLifecycle {
		if phase := e.catalog.DocumentPhase(); project.StatusID != phase.ID {
			return domain.UploadedDocument{}, domain.Project{}, fmt.Errorf("%w: uploads are accepted only while %s, project is %s",
				domain.ErrInvalidTransition, phase.ID, project.StatusID)
		}
	}

	if up.ID == "" {
		up.ID = e.newID()
	} else {
		existing, err := e.store.GetDocument(ctx, projectID, up.ID)
		switch {
		case err == nil:
			if err := sameUpload(existing, projectID, up); err != nil {
				return domain.UploadedDocument{}, domain.Project{}, err
			}
			e.log.Info("upload already recorded", "project_id", projectID, "upload_id", up.ID)
			return existing, project, nil
		case !errors.Is(err, domain.ErrNotFound):
			return domain.UploadedDocument{}, domain.Project{}, classify(fmt.Errorf("get document: %w", err), domain.ErrStorageUnavailable)
		}
	}
	if up.Size == 0 {
		up.Size = int64(len(up.Content))
	}
	objectKey := up.ObjectKey
	if objectKey == "" && e.blobs != nil && len(up.Content) > 0 {
		objectKey = storage.DocumentObjectKey(projectID, up.DocumentType, up.ID, up.FileName)
		if err := e.blobs.PutDocument(ctx, objectKey, up.Content); err != nil {
			return domain.UploadedDocument{}, domain.Project{}, classify(fmt.Errorf("store file: %w", err), domain.ErrStorageUnavailable)
		}
	}

	doc, err := e.store.AddDocument(ctx, domain.UploadedDocument{
		ID:           up.ID,
		ProjectID:    projectID,
		FileName:     up.FileName,
		DocumentType: up.DocumentType,
		ObjectKey:    objectKey,
		Size:         up.Size,
	})
	if err != nil {
		e.log.Warn("document not recorded", "project_id", projectID, "upload_id", up.ID, "document_type", up.DocumentType, "error", err)
		return domain.UploadedDocument{}, domain.Project{}, classify(fmt.Errorf("add document: %w", err), domain.ErrStorageUnavailable)
	}
	e.cache.Invalidate(ctx, projectID)
	if err := sameUpload(doc, projectID, up); err != nil {
		return domain.UploadedDocument{}, domain.Project{}, err
	}

	e.log.Info("document recorded", "project_id", projectID, "upload_id", doc.ID, "document_type", doc.DocumentType)
	return doc, project, nil
}

// sameUpload reports ErrUploadConflict when stored is not the record up
// would have produced for projectID.
func sameUpload(stored domain.UploadedDocument, projectID string, up Upload) error {
	if stored.ProjectID != projectID || stored.DocumentType != up.DocumentType || stored.FileName != up.FileName {
		return fmt.Errorf("%w: %s holds %s %q", domain.ErrUploadConflict, up.ID, stored.DocumentType, stored.FileName)
	}
	return nil
}

func (e *Engine) advanceForDocument(ctx context.Context, project domain.Project, doc domain.UploadedDocument) (StatusChange, error) {
	change := StatusChange{PreviousStatusID: project.StatusID, StatusID: project.StatusID}
	if doc.ProjectID != project.ID {
		return change, fmt.Errorf("%w: document %s belongs to project %s", domain.ErrUploadConflict, doc.ID, doc.ProjectID)
	}
	if e.catalog.Model() != domain.ModelLadder {
		return change, nil
	}

	matched, _ := e.catalog.StatusByDocumentType(doc.DocumentType)
	target := matched
	if next, ok := e.catalog.Next(matched.ID); ok {
		target = next
	}
	if !e.above(target, project.StatusID) {
		e.log.Debug("status kept", "project_id", project.ID, "status", project.StatusID, "document_type", doc.DocumentType)
		return change, nil
	}

	updated, err := e.moveTo(ctx, project, target.ID, domain.Transition{
		Trigger:      domain.TriggerDocumentUpload,
		DocumentID:   doc.ID,
		DocumentType: doc.DocumentType,
	})
	if errors.Is(err, domain.ErrStatusConflict) {
		// Another writer moved the project first, often the bucket event
		// for this same upload.
		fresh, rerr := e.loadProject(ctx, project.ID)
		if rerr == nil && !e.above(target, fresh.StatusID) {
			e.log.Info("status already advanced", "project_id", project.ID, "status", fresh.StatusID, "upload_id", doc.ID)
			change.StatusID = fresh.StatusID
			return change, nil
		}
	}
	if err != nil {
		return change, err
	}
	change.StatusID = updated.StatusID
	change.Advanced = true
	return change, nil
}

// Reconcile folds the stored document types into the highest status they
// unlock and advances the project there. It never demotes.
func (e *Engine) Reconcile(ctx context.Context, projectID string) (StatusChange, error) {
	if e.catalog.Model() != domain.ModelLadder {
		return StatusChange{}, fmt.Errorf("%w: reconcile applies to the ladder model only", domain.ErrInvalidTransition)
	}
	unlock := e.locks.Lock(projectID)
	defer unlock()

	project, err := e.loadProject(ctx, projectID)
	if err != nil {
		return StatusChange{}, err
	}
	change := StatusChange{PreviousStatusID: project.StatusID, StatusID: project.StatusID}

	types, err := e.store.ListDocumentTypes(ctx, projectID)
	if err != nil {
		return change, classify(fmt.Errorf("list document types: %w", err), domain.ErrStorageUnavailable)
	}
	target, ok := e.catalog.LadderTarget(types)
	if !ok || !e.above(target, project.StatusID) {
		return change, nil
	}

	updated, err := e.moveTo(ctx, project, target.ID, domain.Transition{Trigger: domain.TriggerReconcile})
	if err != nil {
		return change, err
	}
	change.StatusID = updated.StatusID
	change.Advanced = true
	return change, nil
}

// ChangeStatus performs an explicit lifecycle transition. Only the
// immediate successor is accepted and entering the terminal status needs
// every document step uploaded.
func (e *Engine) ChangeStatus(ctx context.Context, projectID string, target domain.StatusID) (StatusChange, error) {
	if e.catalog.Model() != domain.ModelLifecycle {
		return StatusChange{}, fmt.Errorf("%w: status follows uploaded documents in the ladder model", domain.ErrInvalidTransition)
	}
	if _, ok := e.catalog.Status(target); !ok {
		return StatusChange{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, target)
	}
	unlock := e.locks.Lock(projectID)
	defer unlock()

	project, err := e.loadProject(ctx, projectID)
	if err != nil {
		return StatusChange{}, err
	}
	change := StatusChange{PreviousStatusID: project.StatusID, StatusID: project.StatusID}

	next, ok := e.catalog.Next(project.StatusID)
	if !ok || next.ID != target {
		return change, fmt.Errorf("%w: %s cannot move to %s", domain.ErrInvalidTransition, project.StatusID, target)
	}
	if e.catalog.IsTerminal(target) {
		types, err := e.store.ListDocumentTypes(ctx, projectID)
		if err != nil {
			return change, classify(fmt.Errorf("list document types: %w", err), domain.ErrStorageUnavailable)
		}
		if p := e.catalog.Progress(types); !p.AllUploaded {
			return change, fmt.Errorf("%w: %d of %d uploaded", domain.ErrDocumentsIncomplete, len(p.Completed), p.Total)
		}
	}

	updated, err := e.moveTo(ctx, project, target, domain.Transition{Trigger: domain.TriggerManual})
	if err != nil {
		return change, err
	}
	change.StatusID = updated.StatusID
	change.Advanced = true
	return change, nil
}

func (e *Engine) CanComplete(ctx context.Context, projectID string) (bool, error) {
	types, err := e.DocumentTypes(ctx, projectID)
	if err != nil {
		return false, err
	}
	return e.catalog.CanComplete(types), nil
}

// Project returns the project, creating it with the initial status on
// first access.
func (e *Engine) Project(ctx context.Context, projectID string) (domain.Project, error) {
	if p, ok := e.cache.GetProject(ctx, projectID); ok {
		return p, nil
	}
	return e.loadProject(ctx, projectID)
}

func (e *Engine) DocumentTypes(ctx context.Context, projectID string) ([]domain.DocumentType, error) {
	if types, ok := e.cache.GetDocumentTypes(ctx, projectID); ok {
		return types, nil
	}
	types, err := e.store.ListDocumentTypes(ctx, projectID)
	if err != nil {
		return nil, classify(fmt.Errorf("list document types: %w", err), domain.ErrStorageUnavailable)
	}
	e.cache.PutDocumentTypes(ctx, projectID, types)
	return types, nil
}

func (e *Engine) Documents(ctx context.Context, projectID string) ([]domain.UploadedDocument, error) {
	docs, err := e.store.ListDocuments(ctx, projectID)
	if err != nil {
		return nil, classify(fmt.Errorf("list documents: %w", err), domain.ErrStorageUnavailable)
	}
	return docs, nil
}

func (e *Engine) History(ctx context.Context, projectID string) ([]domain.Transition, error) {
	items, err := e.store.ListTransitions(ctx, projectID)
	if err != nil {
		return nil, classify(fmt.Errorf("list transitions: %w", err), domain.ErrStorageUnavailable)
	}
	return items, nil
}

// DeleteDocument removes every upload of documentType. The project status
// is left as is. A type the project never received, or one outside the
// catalog, is acknowledged without touching the store.
func (e *Engine) DeleteDocument(ctx context.Context, projectID string, documentType domain.DocumentType) error {
	if !e.catalog.KnownDocumentType(documentType) {
		e.log.Debug("delete of unknown document type ignored", "project_id", projectID, "document_type", documentType)
		return nil
	}
	unlock := e.locks.Lock(projectID)
	defer unlock()

	if err := e.store.DeleteDocument(ctx, projectID, documentType); err != nil {
		return classify(fmt.Errorf("delete document: %w", err), domain.ErrStorageUnavailable)
	}
	e.cache.Invalidate(ctx, projectID)
	e.log.Info("document type removed", "project_id", projectID, "document_type", documentType)
	return nil
}

func (e *Engine) CreateProject(ctx context.Context, name string) (domain.Project, error) {
	p, err := e.store.CreateProject(ctx, domain.Project{
		ID:       e.newID(),
		Name:     strings.TrimSpace(name),
		StatusID: e.catalog.Initial().ID,
	})
	if err != nil {
		return domain.Project{}, classify(fmt.Errorf("create project: %w", err), domain.ErrUpdateUnavailable)
	}
	e.cache.PutProject(ctx, p)
	e.log.Info("project created", "project_id", p.ID)
	return p, nil
}

func (e *Engine) Rename(ctx context.Context, projectID, name string) (domain.Project, error) {
	unlock := e.locks.Lock(projectID)
	defer unlock()

	if _, err := e.loadProject(ctx, projectID); err != nil {
		return domain.Project{}, err
	}
	trimmed := strings.TrimSpace(name)
	p, err := e.store.UpdateProject(ctx, domain.ProjectUpdate{ProjectID: projectID, Name: &trimmed})
	if err != nil {
		e.cache.Invalidate(ctx, projectID)
		return domain.Project{}, classify(fmt.Errorf("rename project: %w", err), domain.ErrUpdateUnavailable)
	}
	e.cache.PutProject(ctx, p)
	return p, nil
}

// View assembles the read model shown next to a project.
func (e *Engine) View(ctx context.Context, projectID string) (StatusView, error) {
	project, err := e.Project(ctx, projectID)
	if err != nil {
		return StatusView{}, err
	}
	types, err := e.DocumentTypes(ctx, projectID)
	if err != nil {
		return StatusView{}, err
	}
	return BuildView(e.catalog, project, types), nil
}

func (e *Engine) loadProject(ctx context.Context, projectID string) (domain.Project, error) {
	p, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, classify(fmt.Errorf("get project: %w", err), domain.ErrStorageUnavailable)
	}
	e.cache.PutProject(ctx, p)
	return p, nil
}

// moveTo commits target guarded by the status the caller read, then
// records the transition.
func (e *Engine) moveTo(ctx context.Context, project domain.Project, target domain.StatusID, t domain.Transition) (domain.Project, error) {
	current := project.StatusID
	updated, err := e.store.UpdateProject(ctx, domain.ProjectUpdate{
		ProjectID:        project.ID,
		StatusID:         &target,
		ExpectedStatusID: &current,
	})
	if err != nil {
		e.cache.Invalidate(ctx, project.ID)
		e.log.Warn("status update failed", "project_id", project.ID, "from", current, "to", target, "error", err)
		return domain.Project{}, classify(fmt.Errorf("update project: %w", err), domain.ErrUpdateUnavailable)
	}
	e.cache.PutProject(ctx, updated)

	t.ID = e.newID()
	t.ProjectID = project.ID
	t.From = current
	t.To = updated.StatusID
	if err := e.store.AppendTransition(ctx, t); err != nil {
		e.log.Error("transition not recorded", "project_id", project.ID, "from", current, "to", target, "error", err)
	}

	e.log.Info("project status changed", "project_id", project.ID, "from", current, "to", updated.StatusID, "trigger", t.Trigger)
	return updated, nil
}

// above reports whether target sits strictly above current. A current
// status missing from the catalog counts as below every status.
func (e *Engine) above(target domain.StatusDefinition, current domain.StatusID) bool {
	cur, ok := e.catalog.Status(current)
	if !ok {
		return true
	}
	return target.Order > cur.Order
}

// classify keeps domain errors and context errors as they are and tags
// anything else from a backend with kind.
func classify(err, kind error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if domain.ErrorCode(err) != "internal" {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
