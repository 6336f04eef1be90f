package domain

import "errors"

var (
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrStorageUnavailable  = errors.New("document storage is temporarily unavailable")
	ErrUpdateUnavailable   = errors.New("project update is temporarily unavailable")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrDocumentsIncomplete = errors.New("required documents are missing")
	ErrStatusConflict      = errors.New("project status changed concurrently")
	ErrNotFound            = errors.New("not found")
	// ErrUploadConflict means an upload id was reused for a different file.
	ErrUploadConflict      = errors.New("upload id already used for a different document")
)

// Retryable reports whether the caller may resubmit the same action unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrUpdateUnavailable) ||
		errors.Is(err, ErrStatusConflict)
}

// ErrorCode maps an error to the stable token reported to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownDocumentType):
		return "unknown_document_type"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrUpdateUnavailable):
		return "update_unavailable"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrDocumentsIncomplete):
		return "documents_incomplete"
	case errors.Is(err, ErrStatusConflict):
		return "status_conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUploadConflict):
		return "upload_conflict"
	default:
		return "internal"
	}
}
