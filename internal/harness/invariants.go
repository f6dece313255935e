package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/calendar"
)

// CheckInvariants compares the store before the first run with the store
// after the last run and returns every violated engine guarantee:
//
//   - an item reviewed by the runs has a successor in its chain due later
//   - every new item is a non-required control occurrence with a parent
//   - a new item carries its chain head's assignees and controls
//   - controls of new items are flagged has_new_action_items
//   - at most one alert exists per item, type and day
func CheckInvariants(before, after State) []string {
	var errs []string

	prior := make(map[string]actionitem.ActionItem, len(before.Items))
	for _, item := range before.Items {
		prior[item.ID] = item
	}
	byID := make(map[string]actionitem.ActionItem, len(after.Items))
	for _, item := range after.Items {
		byID[item.ID] = item
	}
	flagged := make(map[string]bool, len(after.Controls))
	for _, c := range after.Controls {
		flagged[c.ID] = c.HasNewActionItems
	}

	for _, item := range after.Items {
		old, existed := prior[item.ID]

		if existed {
			if item.IsRecurrent && item.Metadata.IsReviewed && !old.Metadata.IsReviewed && !hasLaterSuccessor(item, after.Items) {
				errs = append(errs, fmt.Sprintf("item %s was reviewed without a later successor in chain %s", item.ID, item.ChainHead()))
			}
			continue
		}

		if item.Metadata.Type != actionitem.TypeControl {
			errs = append(errs, fmt.Sprintf("new item %s has type %q", item.ID, item.Metadata.Type))
		}
		if item.IsRequired {
			errs = append(errs, fmt.Sprintf("new item %s is required", item.ID))
		}
		if item.ParentActionItemID == nil || *item.ParentActionItemID == "" {
			errs = append(errs, fmt.Sprintf("new item %s has no parent", item.ID))
			continue
		}

		head, ok := byID[*item.ParentActionItemID]
		if !ok {
			errs = append(errs, fmt.Sprintf("new item %s points at missing parent %s", item.ID, *item.ParentActionItemID))
			continue
		}
		for _, a := range head.AssigneeIDs {
			if !slices.Contains(item.AssigneeIDs, a) {
				errs = append(errs, fmt.Sprintf("new item %s lacks assignee %s of %s", item.ID, a, head.ID))
			}
		}
		if !slices.Equal(sorted(item.ControlIDs), sorted(head.ControlIDs)) {
			errs = append(errs, fmt.Sprintf("new item %s controls %v differ from %s controls %v", item.ID, item.ControlIDs, head.ID, head.ControlIDs))
		}
		for _, c := range item.ControlIDs {
			if !flagged[c] {
				errs = append(errs, fmt.Sprintf("control %s of new item %s is not flagged", c, item.ID))
			}
		}
	}

	seen := make(map[string]string)
	for _, a := range after.Alerts {
		key := fmt.Sprintf("%s/%s/%s", a.ActionItemID, a.Type, calendar.FormatDay(a.AlertDate, a.AlertDate.Location()))
		if dup, ok := seen[key]; ok {
			errs = append(errs, fmt.Sprintf("alerts %s and %s duplicate %s", dup, a.ID, key))
			continue
		}
		seen[key] = a.ID
	}

	return errs
}

func hasLaterSuccessor(item actionitem.ActionItem, items []actionitem.ActionItem) bool {
	head := item.ChainHead()
	for _, other := range items {
		if other.ID == item.ID || other.ParentActionItemID == nil {
			continue
		}
		if *other.ParentActionItemID == head && other.DueDate.After(item.DueDate) {
			return true
		}
	}
	return false
}

func sorted(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
