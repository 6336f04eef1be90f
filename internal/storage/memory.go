package storage

import (
	"context"
	"sync"
	"time"

	"project-status-tracker/internal/domain"
)

// MemoryStore is the in-process backend used when no POSTGRES_DSN is set
// and by tests.
type MemoryStore struct {
	mu          sync.Mutex
	initial     domain.StatusID
	now         func() time.Time
	projects    map[string]domain.Project
	documents   map[string][]domain.UploadedDocument
	byID        map[string]domain.UploadedDocument
	transitions map[string][]domain.Transition
}

func NewMemoryStore(initial domain.StatusID) *MemoryStore {
	return &MemoryStore{
		initial:     initial,
		now:         func() time.Time { return time.Now().UTC() },
		projects:    map[string]domain.Project{},
		documents:   map[string][]domain.UploadedDocument{},
		byID:        map[string]domain.UploadedDocument{},
		transitions: map[string][]domain.Transition{},
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) AddDocument(ctx context.Context, doc domain.UploadedDocument) (domain.UploadedDocument, error) {
	if err := ctx.Err(); err != nil {
		return domain.UploadedDocument{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := documentKey(doc.ProjectID, doc.ID)
	if existing, ok := s.byID[key]; ok {
		return existing, nil
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = s.now()
	}
	s.byID[key] = doc
	s.documents[doc.ProjectID] = append(s.documents[doc.ProjectID], doc)
	return doc, nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, projectID, documentID string) (domain.UploadedDocument, error) {
	if err := ctx.Err(); err != nil {
		return domain.UploadedDocument{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byID[documentKey(projectID, documentID)]
	if !ok {
		return domain.UploadedDocument{}, domain.ErrNotFound
	}
	return doc, nil
}

func documentKey(projectID, documentID string) string {
	return projectID + "/" + documentID
}

func (s *MemoryStore) ListDocumentTypes(ctx context.Context, projectID string) ([]domain.DocumentType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[domain.DocumentType]struct{}{}
	out := make([]domain.DocumentType, 0)
	for _, doc := range s.documents[projectID] {
		if _, ok := seen[doc.DocumentType]; ok {
			continue
		}
		seen[doc.DocumentType] = struct{}{}
		out = append(out, doc.DocumentType)
	}
	return out, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, projectID string) ([]domain.UploadedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.UploadedDocument{}, s.documents[projectID]...), nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, projectID string, documentType domain.DocumentType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.documents[projectID][:0]
	for _, doc := range s.documents[projectID] {
		if doc.DocumentType == documentType {
			delete(s.byID, documentKey(projectID, doc.ID))
			continue
		}
		kept = append(kept, doc)
	}
	s.documents[projectID] = kept
	return nil
}

func (s *MemoryStore) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.projects[projectID]; ok {
		return p, nil
	}
	now := s.now()
	p := domain.Project{ID: projectID, StatusID: s.initial, CreatedAt: now, UpdatedAt: now}
	s.projects[projectID] = p
	return p, nil
}

// CreateProject stores project unless one with the same ID exists, in
// which case the existing one is returned.
func (s *MemoryStore) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.projects[project.ID]; ok {
		return p, nil
	}
	now := s.now()
	if project.StatusID == "" {
		project.StatusID = s.initial
	}
	project.CreatedAt, project.UpdatedAt = now, now
	s.projects[project.ID] = project
	return project, nil
}

func (s *MemoryStore) UpdateProject(ctx context.Context, update domain.ProjectUpdate) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[update.ProjectID]
	if !ok {
		return domain.Project{}, domain.ErrNotFound
	}
	if update.ExpectedStatusID != nil && *update.ExpectedStatusID != p.StatusID {
		return domain.Project{}, domain.ErrStatusConflict
	}
	if update.StatusID != nil {
		p.StatusID = *update.StatusID
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	p.UpdatedAt = s.now()
	s.projects[p.ID] = p
	return p, nil
}

func (s *MemoryStore) AppendTransition(ctx context.Context, t domain.Transition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.transitions[t.ProjectID] = append(s.transitions[t.ProjectID], t)
	return nil
}

func (s *MemoryStore) ListTransitions(ctx context.Context, projectID string) ([]domain.Transition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transition{}, s.transitions[projectID]...), nil
}

// MemoryBlobs is a BlobStore backed by a map.
type MemoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{objects: map[string][]byte{}}
}

func (b *MemoryBlobs) PutDocument(_ context.Context, objectKey string, content []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectKey] = append([]byte(nil), content...)
	return nil
}

func (b *MemoryBlobs) GetDocument(_ context.Context, objectKey string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	content, ok := b.objects[objectKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}
