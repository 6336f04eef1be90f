package storage

import (
	"context"

	"project-status-tracker/internal/domain"
	"project-status-tracker/internal/faults"
)

// Faulty wraps a Store and fails AddDocument and UpdateProject whenever
// the injector says so. Nothing reaches the wrapped store on an injected
// failure.
type Faulty struct {
	Store
	inj faults.Injector
}

func WithFaults(store Store, inj faults.Injector) Store {
	if inj == nil || inj == faults.Never {
		return store
	}
	return &Faulty{Store: store, inj: inj}
}

func (f *Faulty) AddDocument(ctx context.Context, doc domain.UploadedDocument) (domain.UploadedDocument, error) {
	if f.inj.Fail(faults.OpAddDocument) {
		return domain.UploadedDocument{}, domain.ErrStorageUnavailable
	}
	return f.Store.AddDocument(ctx, doc)
}

func (f *Faulty) UpdateProject(ctx context.Context, update domain.ProjectUpdate) (domain.Project, error) {
	if f.inj.Fail(faults.OpUpdateProject) {
		return domain.Project{}, domain.ErrUpdateUnavailable
	}
	return f.Store.UpdateProject(ctx, update)
}
