package workflow

import "project-status-tracker/internal/domain"

// StatusView is the read model rendered next to a project: where it sits
// on the ladder and which document is expected next.
type StatusView struct {
	ProjectID          string                   `json:"project_id"`
	Name               string                   `json:"name"`
	StatusID           domain.StatusID          `json:"status_id"`
	Label              string                   `json:"label"`
	Order              int                      `json:"order"`
	TotalStatuses      int                      `json:"total_statuses"`
	IsTerminal         bool                     `json:"is_terminal"`
	UploadedTypes      []domain.DocumentType    `json:"uploaded_types"`
	CompletedDocuments int                      `json:"completed_documents"`
	TotalDocuments     int                      `json:"total_documents"`
	NextDocument       *domain.DocumentStep     `json:"next_document,omitempty"`
	ShowProgress       bool                     `json:"show_progress"`
	CanComplete        bool                     `json:"can_complete"`
	NextStatus         *domain.StatusDefinition `json:"next_status,omitempty"`
}

// BuildView is pure; it reads nothing but its arguments.
func BuildView(c *domain.Catalog, project domain.Project, uploaded []domain.DocumentType) StatusView {
	progress := c.Progress(uploaded)
	statuses := c.Statuses()

	v := StatusView{
		ProjectID:          project.ID,
		Name:               project.Name,
		StatusID:           project.StatusID,
		Label:              c.Label(project.StatusID),
		TotalStatuses:      len(statuses),
		IsTerminal:         c.IsTerminal(project.StatusID),
		UploadedTypes:      append([]domain.DocumentType{}, uploaded...),
		CompletedDocuments: len(progress.Completed),
		TotalDocuments:     progress.Total,
		NextDocument:       progress.Next,
		CanComplete:        progress.AllUploaded,
	}
	if def, ok := c.Status(project.StatusID); ok {
		v.Order = def.Order
	}

	switch c.Model() {
	case domain.ModelLadder:
		v.ShowProgress = true
	case domain.ModelLifecycle:
		v.ShowProgress = project.StatusID == c.DocumentPhase().ID
		if next, ok := c.Next(project.StatusID); ok && (!c.IsTerminal(next.ID) || progress.AllUploaded) {
			v.NextStatus = &next
		}
	}
	return v
}
