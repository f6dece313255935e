package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cadence/internal/calendar"
)

// Snapshot renders a result as stable text: every run report followed by
// the final items, alerts and controls.
func Snapshot(s *Scenario, r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", s.Name)

	for i, run := range r.Runs {
		fmt.Fprintf(&b, "\n== run %d: %s ==\n", i+1, run.Day)
		b.WriteString(run.Report.String())
		if run.Err != "" {
			fmt.Fprintf(&b, "Error: %s\n", run.Err)
		}
	}

	b.WriteString("\n== action items ==\n")
	for _, item := range r.State.Items {
		f := ItemFields(item, r.loc)
		fmt.Fprintf(&b, "%s due=%s status=%s schedule=%s parent=%s reviewed=%t required=%t ref=%s assignees=%s controls=%s\n",
			item.ID, f["due_date"], item.Status, f["schedule"], orDash(render(f["parent"])),
			item.Metadata.IsReviewed, item.IsRequired, item.Metadata.ReferenceID,
			orDash(render(f["assignees"])), orDash(render(f["controls"])))
	}

	b.WriteString("\n== alerts ==\n")
	for _, a := range r.State.Alerts {
		fmt.Fprintf(&b, "%s %s item=%s sender=%s receiver=%s org=%s day=%s\n",
			a.ID, a.Type, a.ActionItemID, a.SenderID, a.ReceiverID, a.OrganizationID,
			calendar.FormatDay(a.AlertDate, r.loc))
	}

	b.WriteString("\n== controls ==\n")
	for _, c := range r.State.Controls {
		fmt.Fprintf(&b, "%s has_new_action_items=%t\n", c.ID, c.HasNewActionItems)
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, []byte(Snapshot(s, result)))

	return result, nil
}
