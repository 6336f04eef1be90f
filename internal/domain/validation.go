package domain

import (
	"errors"
	"fmt"
)

// ValidateCatalog checks definitions already sorted by order. Every broken
// rule is reported, joined into one error.
func ValidateCatalog(model WorkflowModel, statuses []StatusDefinition, steps []DocumentStep) error {
	failed := make([]error, 0)

	if _, ok := ParseWorkflowModel(string(model)); !ok {
		failed = append(failed, fmt.Errorf("catalog.model: unsupported workflow model %q", model))
	}
	if len(statuses) == 0 {
		failed = append(failed, errors.New("catalog.statuses: at least one status is required"))
		return errors.Join(failed...)
	}

	ids := make(map[StatusID]struct{}, len(statuses))
	docs := make(map[DocumentType]StatusID, len(statuses))
	for i, s := range statuses {
		if s.ID == "" {
			failed = append(failed, fmt.Errorf("catalog.statuses[%d]: id is required", i))
		}
		if _, dup := ids[s.ID]; dup {
			failed = append(failed, fmt.Errorf("catalog.statuses: duplicate id %q", s.ID))
		}
		ids[s.ID] = struct{}{}

		if s.Order != i+1 {
			failed = append(failed, fmt.Errorf("catalog.statuses: order must be contiguous from 1, got %d at position %d", s.Order, i+1))
		}

		if s.RequiredDocumentType == "" {
			if model == ModelLadder {
				failed = append(failed, fmt.Errorf("catalog.statuses[%s]: required_document_type is required for the ladder model", s.ID))
			}
			continue
		}
		if other, dup := docs[s.RequiredDocumentType]; dup {
			failed = append(failed, fmt.Errorf("catalog.statuses[%s]: document type %q already unlocks %q", s.ID, s.RequiredDocumentType, other))
		}
		docs[s.RequiredDocumentType] = s.ID
	}

	stepTypes := make(map[DocumentType]struct{}, len(steps))
	for i, step := range steps {
		if step.DocumentType == "" {
			failed = append(failed, fmt.Errorf("catalog.documents[%d]: document_type is required", i))
		}
		if _, dup := stepTypes[step.DocumentType]; dup {
			failed = append(failed, fmt.Errorf("catalog.documents: duplicate document type %q", step.DocumentType))
		}
		stepTypes[step.DocumentType] = struct{}{}
		if step.Order != i+1 {
			failed = append(failed, fmt.Errorf("catalog.documents: order must be contiguous from 1, got %d at position %d", step.Order, i+1))
		}
	}

	if model == ModelLadder {
		for dt, id := range docs {
			if _, ok := stepTypes[dt]; !ok {
				failed = append(failed, fmt.Errorf("catalog.documents: %q required by %q has no document step", dt, id))
			}
		}
		for dt := range stepTypes {
			if _, ok := docs[dt]; !ok {
				failed = append(failed, fmt.Errorf("catalog.documents: %q does not unlock any status", dt))
			}
		}
	}
	if model == ModelLifecycle && len(steps) == 0 {
		failed = append(failed, errors.New("catalog.documents: lifecycle model needs at least one document step"))
	}

	return errors.Join(failed...)
}
