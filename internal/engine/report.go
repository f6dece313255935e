package engine

import (
	"fmt"
	"strings"
)

// Outcome is the result of processing one selected item.
type Outcome struct {
	ItemID      string
	SuccessorID string
	Err         error
}

// OK reports whether the item succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// PassStatus summarizes how a pass ended.
type PassStatus string

const (
	// StatusOK means every selection succeeded and every item was visited.
	StatusOK PassStatus = "ok"
	// StatusUnavailable means a selection failed and the pass was aborted.
	StatusUnavailable PassStatus = "unavailable"
	// StatusPartial means the run deadline expired before the pass finished.
	StatusPartial PassStatus = "partial"
	// StatusSkipped means the pass is disabled.
	StatusSkipped PassStatus = "skipped"
)

// PassState is embedded in every pass report.
type PassState struct {
	Status PassStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

func (p *PassState) set(status PassStatus, err error) {
	p.Status = status
	if err != nil {
		p.Error = err.Error()
	}
}

func (p PassState) writeTo(b *strings.Builder) {
	switch p.Status {
	case StatusUnavailable, StatusPartial:
		fmt.Fprintf(b, "Status: %s (%s)\n", p.Status, p.Error)
	case StatusSkipped:
		fmt.Fprintf(b, "Status: %s\n", p.Status)
	}
}

// GenerationReport summarizes the occurrence generator.
type GenerationReport struct {
	Created   int      `json:"created"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids"`
	PassState
}

func (r *GenerationReport) add(o Outcome) {
	if o.OK() {
		r.Created++
		return
	}
	r.Failed++
	r.FailedIDs = append(r.FailedIDs, o.ItemID)
}

// BackfillReport summarizes the back-fill generator.
type BackfillReport struct {
	Restored  int      `json:"restored"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids"`
	PassState
}

func (r *BackfillReport) add(o Outcome) {
	if o.OK() {
		r.Restored++
		return
	}
	r.Failed++
	r.FailedIDs = append(r.FailedIDs, o.ItemID)
}

// AlertReport summarizes both alert passes.
type AlertReport struct {
	Created               int      `json:"created"`
	AlreadySent           int      `json:"already_sent"`
	FailedWithoutAssignee int      `json:"failed_without_assignee"`
	Failed                int      `json:"failed"`
	FailedIDs             []string `json:"failed_ids"`
	PassState
}

func (r *AlertReport) add(o alertOutcome) {
	switch o.result {
	case alertCreated:
		r.Created++
	case alertAlreadySent:
		r.AlreadySent++
	case alertNoAssignee:
		r.FailedWithoutAssignee++
	default:
		r.Failed++
		r.FailedIDs = append(r.FailedIDs, o.ItemID)
	}
}

// Report is the combined result of one run.
type Report struct {
	Today      string           `json:"today"`
	Generation GenerationReport `json:"generation"`
	Backfill   BackfillReport   `json:"backfill"`
	Alerts     AlertReport      `json:"alerts"`
}

// String renders the concatenated text report.
func (r Report) String() string {
	var b strings.Builder

	b.WriteString("[generation]\n")
	fmt.Fprintf(&b, "Created action items: %d\n", r.Generation.Created)
	fmt.Fprintf(&b, "Failed action items: %d\n", r.Generation.Failed)
	fmt.Fprintf(&b, "Failed action item ids: %s\n", strings.Join(r.Generation.FailedIDs, ","))
	r.Generation.writeTo(&b)

	b.WriteString("[backfill]\n")
	fmt.Fprintf(&b, "Restored action items: %d\n", r.Backfill.Restored)
	fmt.Fprintf(&b, "Failed action items: %d\n", r.Backfill.Failed)
	fmt.Fprintf(&b, "Failed action item ids: %s\n", strings.Join(r.Backfill.FailedIDs, ","))
	r.Backfill.writeTo(&b)

	b.WriteString("[alerts]\n")
	fmt.Fprintf(&b, "Created alerts: %d\n", r.Alerts.Created)
	fmt.Fprintf(&b, "Already sent alerts: %d\n", r.Alerts.AlreadySent)
	fmt.Fprintf(&b, "Failed without assignee: %d\n", r.Alerts.FailedWithoutAssignee)
	fmt.Fprintf(&b, "Failed alerts: %d\n", r.Alerts.Failed)
	fmt.Fprintf(&b, "Failed alert ids: %s\n", strings.Join(r.Alerts.FailedIDs, ","))
	r.Alerts.writeTo(&b)

	return b.String()
}

// unavailable reports whether no enabled pass could read the store.
func (r Report) unavailable() bool {
	states := []PassState{r.Generation.PassState, r.Backfill.PassState, r.Alerts.PassState}
	seen := false
	for _, s := range states {
		switch s.Status {
		case StatusSkipped:
		case StatusUnavailable:
			seen = true
		default:
			return false
		}
	}
	return seen
}
