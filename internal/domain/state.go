package domain

type StatusID string

type DocumentType string

type WorkflowModel string

const (
	// ModelLadder advances one status per uploaded document type.
	ModelLadder WorkflowModel = "ladder"
	// ModelLifecycle moves draft -> submitted -> active -> completed on
	// explicit actions; completion is gated on every document being present.
	ModelLifecycle WorkflowModel = "lifecycle"
)

const (
	StatusDraft            StatusID = "draft"
	StatusBidding          StatusID = "bidding"
	StatusVendorSelected   StatusID = "vendor_selected"
	StatusScreenerApproved StatusID = "screener_approved"
	StatusRecruitment      StatusID = "recruitment"
	StatusMedicalReview    StatusID = "medical_review"
	StatusInterview        StatusID = "interview"
	StatusCompleteProject  StatusID = "complete_project"
)

const (
	StatusSubmitted StatusID = "submitted"
	StatusActive    StatusID = "active"
	StatusCompleted StatusID = "completed"
)

const (
	DocBidding          DocumentType = "bidding_document"
	DocVendorSelection  DocumentType = "vendor_selection_document"
	DocScreenerApproval DocumentType = "screener_approval_document"
	DocRecruitment      DocumentType = "recruitment_document"
	DocMedicalReview    DocumentType = "medical_review_document"
	DocInterview        DocumentType = "interview_document"
	DocProjectProgress  DocumentType = "project_progress_document"
	DocCompletion       DocumentType = "completion_document"
)

type TransitionTrigger string

const (
	TriggerDocumentUpload TransitionTrigger = "document_upload"
	TriggerManual         TransitionTrigger = "manual"
	TriggerReconcile      TransitionTrigger = "reconcile"
)

func ParseWorkflowModel(v string) (WorkflowModel, bool) {
	switch WorkflowModel(v) {
	case ModelLadder, ModelLifecycle:
		return WorkflowModel(v), true
	default:
		return "", false
	}
}
