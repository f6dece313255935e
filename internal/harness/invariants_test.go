package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/schedule"
	"github.com/roach88/cadence/internal/testutil"
)

func headItem(reviewed bool) actionitem.ActionItem {
	return actionitem.ActionItem{
		ID: "ai-1", Status: actionitem.StatusNew, DueDate: testutil.Day("2023-06-10"),
		IsRecurrent: true, RecurrentSchedule: schedule.Weekly,
		Metadata:    actionitem.Metadata{Type: actionitem.TypeControl, IsReviewed: reviewed},
		AssigneeIDs: []string{"u-1"}, ControlIDs: []string{"c-1", "c-2"},
	}
}

func childItem() actionitem.ActionItem {
	return actionitem.ActionItem{
		ID: "gen-1", Status: actionitem.StatusNew, DueDate: testutil.Day("2023-06-17"),
		IsRecurrent: true, RecurrentSchedule: schedule.Weekly, ParentActionItemID: strPtr("ai-1"),
		Metadata:    actionitem.Metadata{Type: actionitem.TypeControl},
		AssigneeIDs: []string{"u-1"}, ControlIDs: []string{"c-2", "c-1"},
	}
}

func validStates() (State, State) {
	before := State{
		Items:    []actionitem.ActionItem{headItem(false)},
		Controls: []actionitem.Control{{ID: "c-1"}, {ID: "c-2"}},
	}
	after := State{
		Items: []actionitem.ActionItem{headItem(true), childItem()},
		Alerts: []actionitem.Alert{
			{ID: "gen-2", Type: actionitem.AlertFutureDue, ActionItemID: "gen-1", AlertDate: testutil.Day("2023-06-15")},
		},
		Controls: []actionitem.Control{{ID: "c-1", HasNewActionItems: true}, {ID: "c-2", HasNewActionItems: true}},
	}
	return before, after
}

func TestCheckInvariantsHold(t *testing.T) {
	before, after := validStates()
	assert.Empty(t, CheckInvariants(before, after))
}

func TestCheckInvariantsViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(after *State)
		want   string
	}{
		{
			name: "reviewed without successor",
			mutate: func(after *State) {
				after.Items = after.Items[:1]
				after.Alerts = nil
			},
			want: "item ai-1 was reviewed without a later successor",
		},
		{
			name:   "successor not later",
			mutate: func(after *State) { after.Items[1].DueDate = testutil.Day("2023-06-10") },
			want:   "without a later successor",
		},
		{
			name:   "new item wrong type",
			mutate: func(after *State) { after.Items[1].Metadata.Type = actionitem.TypePolicy },
			want:   `new item gen-1 has type "policy"`,
		},
		{
			name:   "new item required",
			mutate: func(after *State) { after.Items[1].IsRequired = true },
			want:   "new item gen-1 is required",
		},
		{
			name:   "new item without parent",
			mutate: func(after *State) { after.Items[1].ParentActionItemID = nil },
			want:   "new item gen-1 has no parent",
		},
		{
			name:   "missing parent",
			mutate: func(after *State) { after.Items[1].ParentActionItemID = strPtr("ai-9") },
			want:   "points at missing parent ai-9",
		},
		{
			name:   "lost assignee",
			mutate: func(after *State) { after.Items[1].AssigneeIDs = nil },
			want:   "new item gen-1 lacks assignee u-1 of ai-1",
		},
		{
			name:   "control set differs",
			mutate: func(after *State) { after.Items[1].ControlIDs = []string{"c-1"} },
			want:   "controls [c-1] differ from ai-1 controls [c-1 c-2]",
		},
		{
			name:   "control not flagged",
			mutate: func(after *State) { after.Controls[1].HasNewActionItems = false },
			want:   "control c-2 of new item gen-1 is not flagged",
		},
		{
			name: "duplicate alert",
			mutate: func(after *State) {
				dup := after.Alerts[0]
				dup.ID = "gen-3"
				after.Alerts = append(after.Alerts, dup)
			},
			want: "alerts gen-2 and gen-3 duplicate gen-1/CONTROL_FUTURE_DUE_ACTION_ITEM/2023-06-15",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after := validStates()
			tt.mutate(&after)

			errs := CheckInvariants(before, after)
			require.NotEmpty(t, errs)
			assert.Contains(t, strings.Join(errs, "\n"), tt.want)
		})
	}
}

func TestCheckInvariantsIgnoresUnchangedItems(t *testing.T) {
	item := headItem(true)
	before := State{Items: []actionitem.ActionItem{item}}
	after := State{Items: []actionitem.ActionItem{item}}

	assert.Empty(t, CheckInvariants(before, after))
}
