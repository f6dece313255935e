package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/calendar"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against a result and returns the
// failure messages.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(r, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertItemCount:
		return assertItemCount(r, a)
	case AssertItem:
		return assertItem(r, a)
	case AssertControl:
		return assertControl(r, a)
	case AssertAlertCount:
		return assertAlertCount(r, a)
	case AssertAlertOrder:
		return assertAlertOrder(r, a)
	case AssertReport:
		return assertReport(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertItemCount(r *Result, a Assertion) error {
	n := 0
	for _, item := range r.State.Items {
		if item.Metadata.ReferenceID == a.ReferenceID {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d items with reference_id %s", a.Count, a.ReferenceID),
			Actual:   fmt.Sprintf("%d items", n),
		}
	}
	return nil
}

func assertItem(r *Result, a Assertion) error {
	for _, item := range r.State.Items {
		if item.ID == a.ID {
			return matchFields(a.Type, item.ID, ItemFields(item, r.loc), a.Expect)
		}
	}
	return &AssertionError{Type: a.Type, Expected: "item " + a.ID, Actual: "not found"}
}

func assertControl(r *Result, a Assertion) error {
	for _, c := range r.State.Controls {
		if c.ID == a.ID {
			return matchFields(a.Type, c.ID, map[string]any{
				"id":                   c.ID,
				"name":                 c.Name,
				"organization_id":      c.OrganizationID,
				"has_new_action_items": c.HasNewActionItems,
			}, a.Expect)
		}
	}
	return &AssertionError{Type: a.Type, Expected: "control " + a.ID, Actual: "not found"}
}

func assertAlertCount(r *Result, a Assertion) error {
	n := 0
	for _, alert := range r.State.Alerts {
		if a.AlertType != "" && string(alert.Type) != a.AlertType {
			continue
		}
		if a.ActionItemID != "" && alert.ActionItemID != a.ActionItemID {
			continue
		}
		n++
	}
	if n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d alerts (type=%q item=%q)", a.Count, a.AlertType, a.ActionItemID),
			Actual:   fmt.Sprintf("%d alerts", n),
		}
	}
	return nil
}

func assertAlertOrder(r *Result, a Assertion) error {
	actual := make([]string, 0, len(r.State.Alerts))
	for _, alert := range r.State.Alerts {
		actual = append(actual, string(alert.Type))
	}
	if !slices.Equal(actual, a.Types) {
		return &AssertionError{
			Type:     a.Type,
			Expected: strings.Join(a.Types, ", "),
			Actual:   strings.Join(actual, ", "),
		}
	}
	return nil
}

func assertReport(r *Result, a Assertion) error {
	if a.Run < 1 || a.Run > len(r.Runs) {
		return fmt.Errorf("run %d out of range (%d runs)", a.Run, len(r.Runs))
	}
	text := r.Runs[a.Run-1].Report.String()
	for _, line := range strings.Split(text, "\n") {
		if line == a.Contains {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("run %d report line %q", a.Run, a.Contains),
		Actual:   text,
	}
}

// ItemFields flattens an item into the keys item assertions use.
func ItemFields(item actionitem.ActionItem, loc *time.Location) map[string]any {
	parent := ""
	if item.ParentActionItemID != nil {
		parent = *item.ParentActionItemID
	}
	completed := ""
	if item.CompletionDate != nil {
		completed = calendar.FormatDay(*item.CompletionDate, loc)
	}
	return map[string]any{
		"id":                item.ID,
		"name":              item.Name,
		"status":            string(item.Status),
		"due_date":          calendar.FormatDay(item.DueDate, loc),
		"completion_date":   completed,
		"schedule":          item.RecurrentSchedule.Label(),
		"is_recurrent":      item.IsRecurrent,
		"is_required":       item.IsRequired,
		"parent":            parent,
		"type":              string(item.Metadata.Type),
		"reference_id":      item.Metadata.ReferenceID,
		"organization_id":   item.Metadata.OrganizationID,
		"is_reviewed":       item.Metadata.IsReviewed,
		"required_evidence": string(item.Metadata.RequiredEvidence),
		"assignees":         item.AssigneeIDs,
		"controls":          item.ControlIDs,
	}
}

// matchFields compares expected values against actual ones by their
// printed form, so YAML scalars and lists compare naturally.
func matchFields(typ, id string, actual, expect map[string]any) error {
	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: unknown field", k))
			continue
		}
		if render(got) != render(expect[k]) {
			mismatches = append(mismatches, fmt.Sprintf("%s: want %s, got %s", k, render(expect[k]), render(got)))
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%s %v", id, expect),
			Actual:   strings.Join(mismatches, "; "),
		}
	}
	return nil
}

func render(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format(calendar.DayLayout)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = render(e)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
