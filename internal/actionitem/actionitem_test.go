package actionitem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/schedule"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func recurringItem() ActionItem {
	return ActionItem{
		ID:                "ai-1",
		Name:              "Review firewall rules",
		Description:       "quarterly review",
		Status:            StatusNew,
		DueDate:           day("2023-03-22"),
		IsRecurrent:       true,
		RecurrentSchedule: schedule.Quarterly,
		IsRequired:        true,
		Metadata: Metadata{
			Type:             TypeControl,
			ReferenceID:      "ref-1",
			OrganizationID:   "org-1",
			IsReviewed:       false,
			RequiredEvidence: EvidenceYes,
		},
		AssigneeIDs: []string{"u-2", "u-1"},
		ControlIDs:  []string{"c-1"},
	}
}

func TestChainHead(t *testing.T) {
	item := recurringItem()
	assert.Equal(t, "ai-1", item.ChainHead())

	item.ParentActionItemID = strPtr("")
	assert.Equal(t, "ai-1", item.ChainHead(), "empty parent is treated as no parent")

	item.ParentActionItemID = strPtr("head")
	assert.Equal(t, "head", item.ChainHead())
}

func TestNormalize(t *testing.T) {
	item := ActionItem{
		Name:              "  Cafe\u0301 audit ",
		Description:       "e\u0301",
		RecurrentSchedule: schedule.Monthly,
	}
	item.Normalize()

	assert.Equal(t, "Caf\u00e9 audit", item.Name)
	assert.Equal(t, "\u00e9", item.Description)
	assert.True(t, item.IsRecurrent)
	assert.Equal(t, StatusNew, item.Status)

	item.RecurrentSchedule = schedule.Immediate
	item.Normalize()
	assert.False(t, item.IsRecurrent)
}

func TestValidate(t *testing.T) {
	completed := day("2023-06-01")
	tests := []struct {
		name   string
		mutate func(*ActionItem)
		want   error
	}{
		{"valid", func(*ActionItem) {}, nil},
		{"missing id", func(a *ActionItem) { a.ID = " " }, ErrInvalidInput},
		{"missing due date", func(a *ActionItem) { a.DueDate = time.Time{} }, ErrInvalidInput},
		{"bad status", func(a *ActionItem) { a.Status = "DONE" }, ErrInvalidStatus},
		{"unknown schedule", func(a *ActionItem) { a.RecurrentSchedule = "daily" }, ErrUnknownSchedule},
		{"recurrence mismatch", func(a *ActionItem) { a.IsRecurrent = false }, ErrRecurrenceMismatch},
		{"completed without date", func(a *ActionItem) { a.Status = StatusCompleted }, ErrCompletionDate},
		{"date without completed", func(a *ActionItem) { a.CompletionDate = &completed }, ErrCompletionDate},
		{"completed with date", func(a *ActionItem) {
			a.Status = StatusCompleted
			a.CompletionDate = &completed
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := recurringItem()
			tt.mutate(&item)
			err := item.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusNew, StatusPending, true},
		{StatusNew, StatusCompleted, true},
		{StatusNew, StatusNotApplicable, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusNotApplicable, true},
		{StatusPending, StatusNew, false},
		{StatusNew, StatusNew, false},
		{StatusCompleted, StatusPending, false},
		{StatusNotApplicable, StatusNew, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}

	assert.ErrorIs(t, ValidateTransition("BOGUS", StatusNew), ErrInvalidStatus)
}

func TestTransition_StampsCompletionDate(t *testing.T) {
	item := recurringItem()
	now := day("2023-06-15")

	require.NoError(t, item.Transition(StatusPending, now))
	assert.Nil(t, item.CompletionDate)

	require.NoError(t, item.Transition(StatusCompleted, now))
	require.NotNil(t, item.CompletionDate)
	assert.True(t, item.CompletionDate.Equal(now))
	assert.NoError(t, item.Validate())

	err := item.Transition(StatusNotApplicable, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCompleted, item.Status)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusNew.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusNotApplicable.Terminal())
}

func TestSuccessorBuilder(t *testing.T) {
	pred := recurringItem()
	pred.Status = StatusPending
	pred.Metadata.IsReviewed = true

	next, err := NewSuccessor(pred).ID("ai-2").DueDate(day("2023-06-22")).Build()
	require.NoError(t, err)

	assert.Equal(t, "ai-2", next.ID)
	assert.Equal(t, pred.Name, next.Name)
	assert.Equal(t, pred.Description, next.Description)
	assert.Equal(t, StatusNew, next.Status)
	assert.True(t, next.DueDate.Equal(day("2023-06-22")))
	assert.Nil(t, next.CompletionDate)
	assert.True(t, next.IsRecurrent)
	assert.Equal(t, schedule.Quarterly, next.RecurrentSchedule)
	assert.False(t, next.IsRequired)
	require.NotNil(t, next.ParentActionItemID)
	assert.Equal(t, "ai-1", *next.ParentActionItemID)
	assert.Equal(t, Metadata{
		Type:             TypeControl,
		ReferenceID:      "ref-1",
		OrganizationID:   "org-1",
		IsReviewed:       false,
		RequiredEvidence: EvidenceYes,
	}, next.Metadata)
	assert.Equal(t, []string{"u-2", "u-1"}, next.AssigneeIDs)
	assert.Equal(t, []string{"c-1"}, next.ControlIDs)
	assert.NoError(t, next.Validate())

	// The successor must not share backing arrays with its predecessor.
	next.AssigneeIDs[0] = "changed"
	assert.Equal(t, "u-2", pred.AssigneeIDs[0])
}

func TestSuccessorBuilder_ParentIsChainHead(t *testing.T) {
	pred := recurringItem()
	pred.ID = "ai-5"
	pred.ParentActionItemID = strPtr("ai-1")

	next, err := NewSuccessor(pred).ID("ai-6").DueDate(day("2023-06-22")).Build()
	require.NoError(t, err)
	assert.Equal(t, "ai-1", *next.ParentActionItemID)
}

func TestSuccessorBuilder_RequiresMetadata(t *testing.T) {
	pred := recurringItem()
	pred.Metadata.ReferenceID = ""
	_, err := NewSuccessor(pred).ID("x").DueDate(day("2023-06-22")).Build()
	assert.ErrorIs(t, err, ErrInvalidMetadata)

	pred = recurringItem()
	pred.Metadata.OrganizationID = ""
	_, err = NewSuccessor(pred).ID("x").DueDate(day("2023-06-22")).Build()
	assert.ErrorIs(t, err, ErrInvalidMetadata)

	_, err = NewSuccessor(recurringItem()).DueDate(day("2023-06-22")).Build()
	assert.ErrorIs(t, err, ErrInvalidInput)
}
