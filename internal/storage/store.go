package storage

import (
	"context"
	"path"

	"project-status-tracker/internal/domain"
)

// DocumentStore keeps upload records. Document IDs are scoped to their
// project: AddDocument is idempotent on (ProjectID, ID) and returns the
// record that ended up stored. GetDocument returns domain.ErrNotFound for
// an unknown pair.
type DocumentStore interface {
	AddDocument(ctx context.Context, doc domain.UploadedDocument) (domain.UploadedDocument, error)
	GetDocument(ctx context.Context, projectID, documentID string) (domain.UploadedDocument, error)
	ListDocumentTypes(ctx context.Context, projectID string) ([]domain.DocumentType, error)
	ListDocuments(ctx context.Context, projectID string) ([]domain.UploadedDocument, error)
	DeleteDocument(ctx context.Context, projectID string, documentType domain.DocumentType) error
}

// ProjectStore creates a project on first read with the store's initial
// status.
type ProjectStore interface {
	GetProject(ctx context.Context, projectID string) (domain.Project, error)
	CreateProject(ctx context.Context, project domain.Project) (domain.Project, error)
	UpdateProject(ctx context.Context, update domain.ProjectUpdate) (domain.Project, error)
}

type HistoryStore interface {
	AppendTransition(ctx context.Context, t domain.Transition) error
	ListTransitions(ctx context.Context, projectID string) ([]domain.Transition, error)
}

// Store is what the engine needs from a backend.
type Store interface {
	DocumentStore
	ProjectStore
	HistoryStore
	Ping(ctx context.Context) error
	Close() error
}

// BlobStore holds uploaded file bytes.
type BlobStore interface {
	PutDocument(ctx context.Context, objectKey string, content []byte) error
	GetDocument(ctx context.Context, objectKey string) ([]byte, error)
}

// DocumentObjectKey is the bucket key for one upload attempt. The event
// handler parses the same layout back.
func DocumentObjectKey(projectID string, documentType domain.DocumentType, uploadID, filename string) string {
	return path.Join(projectID, string(documentType), uploadID, path.Base(filename))
}
