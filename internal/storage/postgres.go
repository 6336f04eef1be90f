package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"project-status-tracker/internal/domain"
)

type PostgresStore struct {
	db      *sql.DB
	initial domain.StatusID
}

func NewPostgresStore(dsn string, initial domain.StatusID) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db, initial: initial}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) AddDocument(ctx context.Context, doc domain.UploadedDocument) (domain.UploadedDocument, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_documents (id, project_id, file_name, document_type, object_key, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, id) DO NOTHING
	`, doc.ID, doc.ProjectID, doc.FileName, doc.DocumentType, doc.ObjectKey, doc.Size)
	if err != nil {
		return domain.UploadedDocument{}, fmt.Errorf("insert document %s: %w", doc.ID, err)
	}

	stored, err := s.GetDocument(ctx, doc.ProjectID, doc.ID)
	if err != nil {
		return domain.UploadedDocument{}, fmt.Errorf("read document %s: %w", doc.ID, err)
	}
	return stored, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, projectID, documentID string) (domain.UploadedDocument, error) {
	var doc domain.UploadedDocument
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, file_name, document_type, object_key, size_bytes, uploaded_at
		FROM project_documents
		WHERE project_id = $1 AND id = $2
	`, projectID, documentID)
	if err := row.Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.FileName,
		&doc.DocumentType,
		&doc.ObjectKey,
		&doc.Size,
		&doc.UploadedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UploadedDocument{}, domain.ErrNotFound
		}
		return domain.UploadedDocument{}, err
	}
	return doc, nil
}

func (s *PostgresStore) ListDocumentTypes(ctx context.Context, projectID string) ([]domain.DocumentType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_type
		FROM project_documents
		WHERE project_id = $1
		GROUP BY document_type
		ORDER BY MIN(uploaded_at) ASC, document_type ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]domain.DocumentType, 0)
	for rows.Next() {
		var dt domain.DocumentType
		if err := rows.Scan(&dt); err != nil {
			return nil, err
		}
		types = append(types, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, projectID string) ([]domain.UploadedDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, file_name, document_type, object_key, size_bytes, uploaded_at
		FROM project_documents
		WHERE project_id = $1
		ORDER BY uploaded_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]domain.UploadedDocument, 0)
	for rows.Next() {
		var doc domain.UploadedDocument
		if err := rows.Scan(
			&doc.ID,
			&doc.ProjectID,
			&doc.FileName,
			&doc.DocumentType,
			&doc.ObjectKey,
			&doc.Size,
			&doc.UploadedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, projectID string, documentType domain.DocumentType) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM project_documents
		WHERE project_id = $1 AND document_type = $2
	`, projectID, documentType)
	return err
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, status_id)
		VALUES ($1, '', $2)
		ON CONFLICT (id) DO NOTHING
	`, projectID, s.initial)
	if err != nil {
		return domain.Project{}, fmt.Errorf("ensure project %s: %w", projectID, err)
	}
	return s.readProject(ctx, projectID)
}

func (s *PostgresStore) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	status := project.StatusID
	if status == "" {
		status = s.initial
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, status_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, project.ID, project.Name, status)
	if err != nil {
		return domain.Project{}, fmt.Errorf("create project %s: %w", project.ID, err)
	}
	return s.readProject(ctx, project.ID)
}

func (s *PostgresStore) UpdateProject(ctx context.Context, update domain.ProjectUpdate) (domain.Project, error) {
	var p domain.Project
	row := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET status_id = COALESCE($2, status_id),
		    name = COALESCE($3, name),
		    updated_at = NOW()
		WHERE id = $1 AND ($4::text IS NULL OR status_id = $4)
		RETURNING id, name, status_id, created_at, updated_at
	`, update.ProjectID, nullStatus(update.StatusID), nullString(update.Name), nullStatus(update.ExpectedStatusID))
	err := row.Scan(&p.ID, &p.Name, &p.StatusID, &p.CreatedAt, &p.UpdatedAt)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("update project %s: %w", update.ProjectID, err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, update.ProjectID).Scan(&exists); err != nil {
		return domain.Project{}, fmt.Errorf("check project %s: %w", update.ProjectID, err)
	}
	if !exists {
		return domain.Project{}, domain.ErrNotFound
	}
	return domain.Project{}, domain.ErrStatusConflict
}

func (s *PostgresStore) AppendTransition(ctx context.Context, t domain.Transition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO status_transitions (id, project_id, from_status, to_status, trigger_kind, document_id, document_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.ProjectID, t.From, t.To, t.Trigger, t.DocumentID, t.DocumentType)
	return err
}

func (s *PostgresStore) ListTransitions(ctx context.Context, projectID string) ([]domain.Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, from_status, to_status, trigger_kind, document_id, document_type, created_at
		FROM status_transitions
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Transition, 0)
	for rows.Next() {
		var t domain.Transition
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.From, &t.To, &t.Trigger, &t.DocumentID, &t.DocumentType, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *PostgresStore) readProject(ctx context.Context, projectID string) (domain.Project, error) {
	var p domain.Project
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status_id, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, projectID)
	if err := row.Scan(&p.ID, &p.Name, &p.StatusID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, domain.ErrNotFound
		}
		return domain.Project{}, fmt.Errorf("read project %s: %w", projectID, err)
	}
	return p, nil
}

func nullStatus(id *domain.StatusID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
