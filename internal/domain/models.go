package domain

import "time"

type StatusDefinition struct {
	ID                   StatusID     `json:"id" yaml:"id"`
	Label                string       `json:"label" yaml:"label"`
	Order                int          `json:"order" yaml:"order"`
	RequiredDocumentType DocumentType `json:"required_document_type,omitempty" yaml:"required_document_type"`
	Description          string       `json:"description,omitempty" yaml:"description"`
}

type DocumentStep struct {
	DocumentType DocumentType `json:"document_type" yaml:"document_type"`
	Label        string       `json:"label" yaml:"label"`
	Order        int          `json:"order" yaml:"order"`
}

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StatusID  StatusID  `json:"status_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UploadedDocument is immutable once stored. ID doubles as the upload-attempt
// id, so storing the same ID twice keeps the first record.
type UploadedDocument struct {
	ID           string       `json:"id"`
	ProjectID    string       `json:"project_id"`
	FileName     string       `json:"file_name"`
	DocumentType DocumentType `json:"document_type"`
	ObjectKey    string       `json:"object_key,omitempty"`
	Size         int64        `json:"size"`
	UploadedAt   time.Time    `json:"uploaded_at"`
}

// ProjectUpdate is a partial update; nil fields are left unchanged.
// ExpectedStatusID, when set, must match the stored status for the update
// to apply.
type ProjectUpdate struct {
	ProjectID        string
	StatusID         *StatusID
	Name             *string
	ExpectedStatusID *StatusID
}

type Transition struct {
	ID           string            `json:"id"`
	ProjectID    string            `json:"project_id"`
	From         StatusID          `json:"from"`
	To           StatusID          `json:"to"`
	Trigger      TransitionTrigger `json:"trigger"`
	DocumentID   string            `json:"document_id,omitempty"`
	DocumentType DocumentType      `json:"document_type,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type Progress struct {
	Completed   []DocumentStep `json:"completed"`
	Next        *DocumentStep  `json:"next,omitempty"`
	AllUploaded bool           `json:"all_uploaded"`
	Total       int            `json:"total"`
}

func StatusPtr(id StatusID) *StatusID {
	return &id
}
