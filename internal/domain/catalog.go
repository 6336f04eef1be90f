package domain

import (
	"sort"
	"strings"
)

// Catalog is the immutable, ordered status ladder plus the document steps
// that drive it. All methods are pure lookups.
type Catalog struct {
	model    WorkflowModel
	statuses []StatusDefinition
	steps    []DocumentStep
	byID     map[StatusID]int
	byDoc    map[DocumentType]int
	stepByDT map[DocumentType]int
}

// NewCatalog sorts the definitions by order and validates them. For the
// ladder model, steps may be omitted and are derived from the statuses.
func NewCatalog(model WorkflowModel, statuses []StatusDefinition, steps []DocumentStep) (*Catalog, error) {
	sortedStatuses := append([]StatusDefinition(nil), statuses...)
	sort.SliceStable(sortedStatuses, func(i, j int) bool { return sortedStatuses[i].Order < sortedStatuses[j].Order })

	sortedSteps := append([]DocumentStep(nil), steps...)
	if len(sortedSteps) == 0 && model == ModelLadder {
		for _, s := range sortedStatuses {
			sortedSteps = append(sortedSteps, DocumentStep{
				DocumentType: s.RequiredDocumentType,
				Label:        HumanizeDocumentType(s.RequiredDocumentType),
				Order:        s.Order,
			})
		}
	}
	sort.SliceStable(sortedSteps, func(i, j int) bool { return sortedSteps[i].Order < sortedSteps[j].Order })

	if err := ValidateCatalog(model, sortedStatuses, sortedSteps); err != nil {
		return nil, err
	}

	c := &Catalog{
		model:    model,
		statuses: sortedStatuses,
		steps:    sortedSteps,
		byID:     make(map[StatusID]int, len(sortedStatuses)),
		byDoc:    make(map[DocumentType]int, len(sortedStatuses)),
		stepByDT: make(map[DocumentType]int, len(sortedSteps)),
	}
	for i, s := range sortedStatuses {
		c.byID[s.ID] = i
		if s.RequiredDocumentType != "" {
			c.byDoc[s.RequiredDocumentType] = i
		}
	}
	for i, s := range sortedSteps {
		c.stepByDT[s.DocumentType] = i
	}
	return c, nil
}

// Validate re-checks the catalog invariants NewCatalog enforces.
func (c *Catalog) Validate() error {
	return ValidateCatalog(c.model, c.statuses, c.steps)
}

func (c *Catalog) Model() WorkflowModel {
	return c.model
}

func (c *Catalog) Statuses() []StatusDefinition {
	return append([]StatusDefinition(nil), c.statuses...)
}

func (c *Catalog) DocumentSteps() []DocumentStep {
	return append([]DocumentStep(nil), c.steps...)
}

func (c *Catalog) Initial() StatusDefinition {
	return c.statuses[0]
}

func (c *Catalog) Terminal() StatusDefinition {
	return c.statuses[len(c.statuses)-1]
}

func (c *Catalog) Status(id StatusID) (StatusDefinition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return StatusDefinition{}, false
	}
	return c.statuses[i], true
}

// Next returns the definition one order above id. It reports false for an
// unknown id or the terminal status.
func (c *Catalog) Next(id StatusID) (StatusDefinition, bool) {
	i, ok := c.byID[id]
	if !ok || i+1 >= len(c.statuses) {
		return StatusDefinition{}, false
	}
	return c.statuses[i+1], true
}

func (c *Catalog) StatusByDocumentType(dt DocumentType) (StatusDefinition, bool) {
	i, ok := c.byDoc[dt]
	if !ok {
		return StatusDefinition{}, false
	}
	return c.statuses[i], true
}

// KnownDocumentType reports whether dt is one of the catalog's document steps.
func (c *Catalog) KnownDocumentType(dt DocumentType) bool {
	_, ok := c.stepByDT[dt]
	return ok
}

func (c *Catalog) Label(id StatusID) string {
	if s, ok := c.Status(id); ok {
		return s.Label
	}
	return string(id)
}

func (c *Catalog) IsTerminal(id StatusID) bool {
	return id == c.Terminal().ID
}

// DocumentPhase is the lifecycle status during which uploads are accepted:
// the one right before the terminal status.
func (c *Catalog) DocumentPhase() StatusDefinition {
	if len(c.statuses) < 2 {
		return c.statuses[0]
	}
	return c.statuses[len(c.statuses)-2]
}

// Progress reports which document steps are satisfied by uploaded and which
// one comes next.
func (c *Catalog) Progress(uploaded []DocumentType) Progress {
	have := make(map[DocumentType]struct{}, len(uploaded))
	for _, dt := range uploaded {
		have[dt] = struct{}{}
	}

	p := Progress{Completed: make([]DocumentStep, 0, len(c.steps)), Total: len(c.steps)}
	for _, step := range c.steps {
		if _, ok := have[step.DocumentType]; ok {
			p.Completed = append(p.Completed, step)
			continue
		}
		if p.Next == nil {
			next := step
			p.Next = &next
		}
	}
	p.AllUploaded = len(p.Completed) == len(c.steps)
	return p
}

func (c *Catalog) CanComplete(uploaded []DocumentType) bool {
	return c.Progress(uploaded).AllUploaded
}

// LadderTarget folds uploaded document types into the highest status they
// unlock. It reports false when none of them maps to a status.
func (c *Catalog) LadderTarget(uploaded []DocumentType) (StatusDefinition, bool) {
	best := -1
	for _, dt := range uploaded {
		i, ok := c.byDoc[dt]
		if !ok {
			continue
		}
		if i+1 < len(c.statuses) {
			i++
		}
		if i > best {
			best = i
		}
	}
	if best < 0 {
		return StatusDefinition{}, false
	}
	return c.statuses[best], true
}

func HumanizeDocumentType(dt DocumentType) string {
	return strings.ReplaceAll(string(dt), "_", " ")
}

func LadderCatalog() *Catalog {
	c, err := NewCatalog(ModelLadder, []StatusDefinition{
		{ID: StatusDraft, Label: "Draft", Order: 1, RequiredDocumentType: DocBidding, Description: "Project captured, bidding not started"},
		{ID: StatusBidding, Label: "Bidding", Order: 2, RequiredDocumentType: DocVendorSelection, Description: "Bids collected from vendors"},
		{ID: StatusVendorSelected, Label: "Vendor Selected", Order: 3, RequiredDocumentType: DocScreenerApproval},
		{ID: StatusScreenerApproved, Label: "Screener Approved", Order: 4, RequiredDocumentType: DocRecruitment},
		{ID: StatusRecruitment, Label: "Recruitment", Order: 5, RequiredDocumentType: DocMedicalReview},
		{ID: StatusMedicalReview, Label: "Medical Review", Order: 6, RequiredDocumentType: DocInterview},
		{ID: StatusInterview, Label: "Interview", Order: 7, RequiredDocumentType: DocProjectProgress},
		{ID: StatusCompleteProject, Label: "Complete Project", Order: 8, RequiredDocumentType: DocCompletion, Description: "Final completion document confirms the project"},
	}, defaultDocumentSteps())
	if err != nil {
		panic(err)
	}
	return c
}

func LifecycleCatalog() *Catalog {
	c, err := NewCatalog(ModelLifecycle, []StatusDefinition{
		{ID: StatusDraft, Label: "Draft", Order: 1},
		{ID: StatusSubmitted, Label: "Submitted", Order: 2},
		{ID: StatusActive, Label: "Active", Order: 3, Description: "Document uploads drive progress"},
		{ID: StatusCompleted, Label: "Completed", Order: 4},
	}, defaultDocumentSteps())
	if err != nil {
		panic(err)
	}
	return c
}

// BuiltinCatalog returns the built-in catalog for model.
func BuiltinCatalog(model WorkflowModel) (*Catalog, bool) {
	switch model {
	case ModelLadder:
		return LadderCatalog(), true
	case ModelLifecycle:
		return LifecycleCatalog(), true
	default:
		return nil, false
	}
}

func defaultDocumentSteps() []DocumentStep {
	return []DocumentStep{
		{DocumentType: DocBidding, Label: "Bidding", Order: 1},
		{DocumentType: DocVendorSelection, Label: "Vendor Selection", Order: 2},
		{DocumentType: DocScreenerApproval, Label: "Screener Approval", Order: 3},
		{DocumentType: DocRecruitment, Label: "Recruitment", Order: 4},
		{DocumentType: DocMedicalReview, Label: "Medical Review", Order: 5},
		{DocumentType: DocInterview, Label: "Interview", Order: 6},
		{DocumentType: DocProjectProgress, Label: "Project Progress", Order: 7},
		{DocumentType: DocCompletion, Label: "Final Completion", Order: 8},
	}
}
