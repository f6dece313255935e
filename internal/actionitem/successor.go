package actionitem

import (
	"fmt"
	"time"
)

// SuccessorBuilder builds the next occurrence of a recurring item. Every
// field of the successor is set explicitly in Build so the successor shape
// can be checked in one place.
type SuccessorBuilder struct {
	pred ActionItem
	id   string
	due  time.Time
}

// NewSuccessor starts a successor of pred.
func NewSuccessor(pred ActionItem) *SuccessorBuilder {
	return &SuccessorBuilder{pred: pred}
}

// ID sets the successor's id.
func (b *SuccessorBuilder) ID(id string) *SuccessorBuilder {
	b.id = id
	return b
}

// DueDate sets the successor's due date.
func (b *SuccessorBuilder) DueDate(due time.Time) *SuccessorBuilder {
	b.due = due
	return b
}

// Build returns the successor. It fails with ErrInvalidMetadata when the
// predecessor lacks the reference or organization that tie a chain together.
func (b *SuccessorBuilder) Build() (ActionItem, error) {
	p := b.pred
	if p.Metadata.ReferenceID == "" {
		return ActionItem{}, fmt.Errorf("%w: %s has no reference_id", ErrInvalidMetadata, p.ID)
	}
	if p.Metadata.OrganizationID == "" {
		return ActionItem{}, fmt.Errorf("%w: %s has no organization_id", ErrInvalidMetadata, p.ID)
	}
	if b.id == "" || b.due.IsZero() {
		return ActionItem{}, ErrInvalidInput
	}

	head := p.ChainHead()
	next := ActionItem{
		ID:                 b.id,
		Name:               p.Name,
		Description:        p.Description,
		Status:             StatusNew,
		DueDate:            b.due,
		CompletionDate:     nil,
		IsRecurrent:        p.RecurrentSchedule != "",
		RecurrentSchedule:  p.RecurrentSchedule,
		IsRequired:         false,
		ParentActionItemID: &head,
		Metadata: Metadata{
			Type:             TypeControl,
			ReferenceID:      p.Metadata.ReferenceID,
			OrganizationID:   p.Metadata.OrganizationID,
			IsReviewed:       false,
			RequiredEvidence: p.Metadata.RequiredEvidence,
		},
		AssigneeIDs: append([]string(nil), p.AssigneeIDs...),
		ControlIDs:  append([]string(nil), p.ControlIDs...),
	}
	return next, nil
}
