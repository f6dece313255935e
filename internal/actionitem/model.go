// Package actionitem defines the action-item entity, its state machine, the
// successor builder used by the recurrence engine, and alert records.
package actionitem

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cadence/internal/schedule"
)

// Status is the workflow state of an action item.
type Status string

const (
	StatusNew           Status = "NEW"
	StatusPending       Status = "PENDING"
	StatusCompleted     Status = "COMPLETED"
	StatusNotApplicable Status = "NOT_APPLICABLE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusPending, StatusCompleted, StatusNotApplicable:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusNotApplicable
}

// Type is the metadata.type of an action item. Only TypeControl participates
// in the recurrence engine.
type Type string

const (
	TypeControl      Type = "control"
	TypePolicy       Type = "policy"
	TypeAccessReview Type = "access_review"
	TypeQuickStart   Type = "quick_start"
)

// RequiredEvidence is the metadata.required_evidence flag.
type RequiredEvidence string

const (
	EvidenceUnset RequiredEvidence = ""
	EvidenceYes   RequiredEvidence = "Yes"
	EvidenceNo    RequiredEvidence = "No"
)

// Metadata is the closed set of reserved metadata keys.
type Metadata struct {
	Type             Type             `json:"type" yaml:"type"`
	ReferenceID      string           `json:"reference_id" yaml:"reference_id"`
	OrganizationID   string           `json:"organization_id" yaml:"organization_id"`
	IsReviewed       bool             `json:"is_reviewed" yaml:"is_reviewed"`
	RequiredEvidence RequiredEvidence `json:"required_evidence" yaml:"required_evidence"`
}

// ActionItem is a durable unit of compliance work attached to controls.
//
// AssigneeIDs keeps assignment order: the first entry is the alert receiver.
type ActionItem struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Description        string        `json:"description"`
	Status             Status        `json:"status"`
	DueDate            time.Time     `json:"due_date"`
	CompletionDate     *time.Time    `json:"completion_date,omitempty"`
	IsRecurrent        bool          `json:"is_recurrent"`
	RecurrentSchedule  schedule.Name `json:"recurrent_schedule"`
	IsRequired         bool          `json:"is_required"`
	ParentActionItemID *string       `json:"parent_action_item_id,omitempty"`
	Metadata           Metadata      `json:"metadata"`
	AssigneeIDs        []string      `json:"assignee_ids,omitempty"`
	ControlIDs         []string      `json:"control_ids,omitempty"`
}

// ChainHead returns the id of the first occurrence of the item's recurrence
// chain. Children always point at the head, so one dereference is enough.
func (a ActionItem) ChainHead() string {
	if a.ParentActionItemID != nil && *a.ParentActionItemID != "" {
		return *a.ParentActionItemID
	}
	return a.ID
}

// Normalize derives is_recurrent from the schedule and NFC-normalizes free
// text. Stores call it on every write.
func (a *ActionItem) Normalize() {
	a.IsRecurrent = a.RecurrentSchedule != schedule.Immediate
	a.Name = norm.NFC.String(strings.TrimSpace(a.Name))
	a.Description = norm.NFC.String(a.Description)
	if a.Status == "" {
		a.Status = StatusNew
	}
}

// Validate checks the write-time invariants of a single item.
func (a ActionItem) Validate() error {
	if strings.TrimSpace(a.ID) == "" || a.Name == "" {
		return ErrInvalidInput
	}
	if !a.Status.Valid() {
		return ErrInvalidStatus
	}
	if _, ok := schedule.Lookup(a.RecurrentSchedule); !ok {
		return ErrUnknownSchedule
	}
	if a.IsRecurrent != (a.RecurrentSchedule != schedule.Immediate) {
		return ErrRecurrenceMismatch
	}
	if (a.Status == StatusCompleted) != (a.CompletionDate != nil) {
		return ErrCompletionDate
	}
	if a.DueDate.IsZero() {
		return ErrInvalidInput
	}
	return nil
}

// User is an entry of the user directory.
type User struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Email          string `json:"email" yaml:"email"`
	OrganizationID string `json:"organization_id" yaml:"organization_id"`
}

// Control is a compliance control owning action items.
type Control struct {
	ID                string `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	OrganizationID    string `json:"organization_id" yaml:"organization_id"`
	HasNewActionItems bool   `json:"has_new_action_items" yaml:"has_new_action_items"`
}
