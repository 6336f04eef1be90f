package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCatalogRules(t *testing.T) {
	valid := []StatusDefinition{
		{ID: "a", Label: "A", Order: 1, RequiredDocumentType: "doc_a"},
		{ID: "b", Label: "B", Order: 2, RequiredDocumentType: "doc_b"},
	}
	validSteps := []DocumentStep{
		{DocumentType: "doc_a", Label: "Doc A", Order: 1},
		{DocumentType: "doc_b", Label: "Doc B", Order: 2},
	}
	if err := ValidateCatalog(ModelLadder, valid, validSteps); err != nil {
		t.Fatalf("expected valid catalog, got %v", err)
	}

	cases := []struct {
		name     string
		model    WorkflowModel
		statuses []StatusDefinition
		steps    []DocumentStep
		wantRule string
	}{
		{
			name:     "unknown model",
			model:    "kanban",
			statuses: valid,
			steps:    validSteps,
			wantRule: "catalog.model",
		},
		{
			name:     "empty",
			model:    ModelLadder,
			wantRule: "at least one status",
		},
		{
			name:  "gap in orders",
			model: ModelLadder,
			statuses: []StatusDefinition{
				{ID: "a", Order: 1, RequiredDocumentType: "doc_a"},
				{ID: "b", Order: 3, RequiredDocumentType: "doc_b"},
			},
			steps:    validSteps,
			wantRule: "contiguous",
		},
		{
			name:  "duplicate id",
			model: ModelLadder,
			statuses: []StatusDefinition{
				{ID: "a", Order: 1, RequiredDocumentType: "doc_a"},
				{ID: "a", Order: 2, RequiredDocumentType: "doc_b"},
			},
			steps:    validSteps,
			wantRule: "duplicate id",
		},
		{
			name:  "shared document type",
			model: ModelLadder,
			statuses: []StatusDefinition{
				{ID: "a", Order: 1, RequiredDocumentType: "doc_a"},
				{ID: "b", Order: 2, RequiredDocumentType: "doc_a"},
			},
			steps:    validSteps[:1],
			wantRule: "already unlocks",
		},
		{
			name:  "ladder status without document",
			model: ModelLadder,
			statuses: []StatusDefinition{
				{ID: "a", Order: 1, RequiredDocumentType: "doc_a"},
				{ID: "b", Order: 2},
			},
			steps:    validSteps[:1],
			wantRule: "required_document_type is required",
		},
		{
			name:     "step without status",
			model:    ModelLadder,
			statuses: valid[:1],
			steps:    validSteps,
			wantRule: "does not unlock any status",
		},
		{
			name:     "lifecycle without steps",
			model:    ModelLifecycle,
			statuses: []StatusDefinition{{ID: "draft", Order: 1}, {ID: "done", Order: 2}},
			wantRule: "at least one document step",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCatalog(tc.model, tc.statuses, tc.steps)
			if err == nil {
				t.Fatalf("expected failed rule %q", tc.wantRule)
			}
			if !strings.Contains(err.Error(), tc.wantRule) {
				t.Fatalf("expected %q in %v", tc.wantRule, err)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(ErrStorageUnavailable) || !Retryable(ErrUpdateUnavailable) {
		t.Fatalf("transient errors must be retryable")
	}
	if Retryable(ErrUnknownDocumentType) {
		t.Fatalf("unknown document type must not be retryable")
	}
	wrapped := errors.Join(errors.New("add document"), ErrStorageUnavailable)
	if !Retryable(wrapped) {
		t.Fatalf("wrapped transient error must stay retryable")
	}
	if got := ErrorCode(ErrDocumentsIncomplete); got != "documents_incomplete" {
		t.Fatalf("unexpected code %q", got)
	}
}
