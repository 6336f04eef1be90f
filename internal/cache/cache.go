// Package cache holds read-through copies of projects and their document
// type sets. Writers overwrite the project and drop the set; a failing
// backend behaves like an empty cache.
package cache

import (
	"context"
	"sync"
	"time"

	"project-status-tracker/internal/domain"
)

type Cache interface {
	GetProject(ctx context.Context, projectID string) (domain.Project, bool)
	PutProject(ctx context.Context, project domain.Project)
	GetDocumentTypes(ctx context.Context, projectID string) ([]domain.DocumentType, bool)
	PutDocumentTypes(ctx context.Context, projectID string, types []domain.DocumentType)
	Invalidate(ctx context.Context, projectID string)
}

type nop struct{}

func (nop) GetProject(context.Context, string) (domain.Project, bool) {
	return domain.Project{}, false
}

func (nop) PutProject(context.Context, domain.Project) {}

func (nop) GetDocumentTypes(context.Context, string) ([]domain.DocumentType, bool) {
	return nil, false
}

func (nop) PutDocumentTypes(context.Context, string, []domain.DocumentType) {}

func (nop) Invalidate(context.Context, string) {}

// Nop never stores anything.
var Nop Cache = nop{}

type entry[T any] struct {
	value   T
	expires time.Time
}

// Memory is an in-process cache with a per-entry TTL.
type Memory struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	projects map[string]entry[domain.Project]
	types    map[string]entry[[]domain.DocumentType]
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:      ttl,
		now:      time.Now,
		projects: map[string]entry[domain.Project]{},
		types:    map[string]entry[[]domain.DocumentType]{},
	}
}

func (m *Memory) GetProject(_ context.Context, projectID string) (domain.Project, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.projects[projectID]
	if !ok || m.expired(e.expires) {
		return domain.Project{}, false
	}
	return e.value, true
}

func (m *Memory) PutProject(_ context.Context, project domain.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = entry[domain.Project]{value: project, expires: m.deadline()}
}

func (m *Memory) GetDocumentTypes(_ context.Context, projectID string) ([]domain.DocumentType, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.types[projectID]
	if !ok || m.expired(e.expires) {
		return nil, false
	}
	return append([]domain.DocumentType{}, e.value...), true
}

func (m *Memory) PutDocumentTypes(_ context.Context, projectID string, types []domain.DocumentType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[projectID] = entry[[]domain.DocumentType]{
		value:   append([]domain.DocumentType{}, types...),
		expires: m.deadline(),
	}
}

func (m *Memory) Invalidate(_ context.Context, projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, projectID)
	delete(m.types, projectID)
}

func (m *Memory) deadline() time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(m.ttl)
}

func (m *Memory) expired(deadline time.Time) bool {
	return !deadline.IsZero() && m.now().After(deadline)
}
