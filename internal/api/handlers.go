package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"project-status-tracker/internal/domain"
	"project-status-tracker/internal/workflow"
)

// Engine is the part of workflow.Engine the HTTP layer drives.
type Engine interface {
	Catalog() *domain.Catalog
	CreateProject(ctx context.Context, name string) (domain.Project, error)
	Project(ctx context.Context, projectID string) (domain.Project, error)
	View(ctx context.Context, projectID string) (workflow.StatusView, error)
	Rename(ctx context.Context, projectID, name string) (domain.Project, error)
	RecordUploadAndAdvance(ctx context.Context, projectID string, up workflow.Upload) (workflow.UploadResult, error)
	Documents(ctx context.Context, projectID string) ([]domain.UploadedDocument, error)
	DeleteDocument(ctx context.Context, projectID string, documentType domain.DocumentType) error
	ChangeStatus(ctx context.Context, projectID string, target domain.StatusID) (workflow.StatusChange, error)
	Reconcile(ctx context.Context, projectID string) (workflow.StatusChange, error)
	History(ctx context.Context, projectID string) ([]domain.Transition, error)
}

// Pinger reports backend readiness for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	AllowedUploadBytes int64
	CORSAllowedOrigins []string
	Logger             *slog.Logger
}

type Handler struct {
	opts   Options
	engine Engine
	ready  Pinger
	log    *slog.Logger
}

type errorResponse struct {
	Error     string                   `json:"error"`
	Code      string                   `json:"code"`
	Retryable bool                     `json:"retryable"`
	Document  *domain.UploadedDocument `json:"document,omitempty"`
}

type projectResponse struct {
	Project domain.Project      `json:"project"`
	View    workflow.StatusView `json:"view"`
}

type catalogResponse struct {
	Model     domain.WorkflowModel      `json:"model"`
	Statuses  []domain.StatusDefinition `json:"statuses"`
	Documents []domain.DocumentStep     `json:"documents"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type statusRequest struct {
	Status domain.StatusID `json:"status"`
}

func NewHandler(opts Options, engine Engine, ready Pinger) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AllowedUploadBytes <= 0 {
		opts.AllowedUploadBytes = 10 << 20
	}
	return &Handler{opts: opts, engine: engine, ready: ready, log: opts.Logger}
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	c := h.engine.Catalog()
	writeJSON(w, http.StatusOK, catalogResponse{
		Model:     c.Model(),
		Statuses:  c.Statuses(),
		Documents: c.DocumentSteps(),
	})
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json")
		return
	}
	if msg := validateProjectName(req.Name); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	p, err := h.engine.CreateProject(ctx, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeProject(ctx, w, r, http.StatusCreated, p.ID)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request, projectID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	h.writeProject(ctx, w, r, http.StatusOK, projectID)
}

func (h *Handler) RenameProject(w http.ResponseWriter, r *http.Request, projectID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json")
		return
	}
	if msg := validateProjectName(req.Name); msg != "" {
		writeBadRequest(w, msg)
		return
	}
	if _, err := h.engine.Rename(ctx, projectID, req.Name); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeProject(ctx, w, r, http.StatusOK, projectID)
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request, projectID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.AllowedUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.opts.AllowedUploadBytes); err != nil {
		writeBadRequest(w, "invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "file form field is required")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, h.opts.AllowedUploadBytes+1))
	if err != nil {
		writeBadRequest(w, "failed to read file")
		return
	}
	if int64(len(body)) > h.opts.AllowedUploadBytes {
		writeBadRequest(w, "file exceeds size limit")
		return
	}

	fields := uploadFields{
		FileName:     header.Filename,
		DocumentType: r.FormValue("document_type"),
		UploadID:     r.FormValue("upload_id"),
		Size:         len(body),
	}
	if msg := fields.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	res, err := h.engine.RecordUploadAndAdvance(ctx, projectID, workflow.Upload{
		ID:           strings.TrimSpace(fields.UploadID),
		FileName:     cleanFileName(fields.FileName),
		DocumentType: domain.DocumentType(fields.DocumentType),
		Content:      body,
	})
	if err != nil {
		if res.Document.ID != "" {
			h.writeErrorWithDocument(w, r, err, &res.Document)
			return
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request, projectID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	docs, err := h.engine.Documents(ctx, projectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": docs})
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request, projectID, documentType string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !tokenPattern.MatchString(documentType) {
		writeBadRequest(w, "document_type must be a snake_case token")
		return
	}
	if err := h.engine.DeleteDocument(ctx, projectID, domain.DocumentType(documentType)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request, projectID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json")
		return
	}
	if strings.TrimSpace(string(req.Status)) == "" {
		writeBadRequest(w, "status is required")
		return
	}

	change, err := h.engine.ChangeStatus(ctx, projectID, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request, projectID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	change, err := h.engine.Reconcile(ctx, projectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request, projectID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.engine.History(ctx, projectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if h.ready != nil {
		if err := h.ready.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) writeProject(ctx context.Context, w http.ResponseWriter, r *http.Request, status int, projectID string) {
	p, err := h.engine.Project(ctx, projectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.engine.View(ctx, projectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, status, projectResponse{Project: p, View: view})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeErrorWithDocument(w, r, err, nil)
}

func (h *Handler) writeErrorWithDocument(w http.ResponseWriter, r *http.Request, err error, doc *domain.UploadedDocument) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && domain.ErrorCode(err) == "internal" {
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      domain.ErrorCode(err),
		Retryable: domain.Retryable(err),
		Document:  doc,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownDocumentType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, domain.ErrUpdateUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrDocumentsIncomplete),
		errors.Is(err, domain.ErrStatusConflict),
		errors.Is(err, domain.ErrUploadConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: "bad_request"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
