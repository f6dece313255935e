package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/schedule"
)

type alertResult int

const (
	alertFailed alertResult = iota
	alertCreated
	alertAlreadySent
	alertNoAssignee
)

type alertOutcome struct {
	Outcome
	result alertResult
}

// Alerts runs the past-due pass and then the future-due pass. A selection
// failure aborts the sub-pass it occurred in; the other still runs.
func (e *Engine) Alerts(ctx context.Context, today time.Time) AlertReport {
	today = e.day(today)
	rep := AlertReport{FailedIDs: []string{}, PassState: PassState{Status: StatusOK}}

	e.alertPass(ctx, &rep, actionitem.AlertPastDue, today, func(s schedule.Schedule) ([]actionitem.ActionItem, error) {
		return e.repo.FindForPastDueAlert(ctx, PastDueQuery{
			Schedule:     s.Name,
			Dates:        s.PastDueDates(today),
			Today:        today,
			WeekdayMatch: s.HasRecurrentPastDue,
		})
	})
	if rep.Status != StatusPartial {
		e.alertPass(ctx, &rep, actionitem.AlertFutureDue, today, func(s schedule.Schedule) ([]actionitem.ActionItem, error) {
			return e.repo.FindForFutureDueAlert(ctx, s.Name, s.FutureDueDates(today))
		})
	}

	e.log.Info().
		Str("pass", PassAlerts).
		Int("created", rep.Created).
		Int("already_sent", rep.AlreadySent).
		Int("failed_without_assignee", rep.FailedWithoutAssignee).
		Int("failed", rep.Failed).
		Str("status", string(rep.Status)).
		Msg("pass finished")
	return rep
}

func (e *Engine) alertPass(
	ctx context.Context,
	rep *AlertReport,
	typ actionitem.AlertType,
	today time.Time,
	selectItems func(schedule.Schedule) ([]actionitem.ActionItem, error),
) {
	seen := make(map[string]bool)
	for _, s := range schedule.Catalog() {
		if err := ctx.Err(); err != nil {
			rep.set(StatusPartial, err)
			return
		}
		items, err := selectItems(s)
		if err != nil {
			e.selectionFailed(ctx, &rep.PassState, PassAlerts, s, err)
			return
		}

		fresh := items[:0:0]
		for _, item := range items {
			if !seen[item.ID] {
				seen[item.ID] = true
				fresh = append(fresh, item)
			}
		}

		outcomes, interrupted := sweep(ctx, e.workers, fresh, func(ctx context.Context, item actionitem.ActionItem) alertOutcome {
			return e.emitAlert(ctx, typ, s, item, today)
		})
		for _, o := range outcomes {
			rep.add(o)
		}
		if interrupted {
			rep.set(StatusPartial, ctx.Err())
			return
		}
	}
}

// emitAlert sends one alert for item from and to its first assignee.
func (e *Engine) emitAlert(ctx context.Context, typ actionitem.AlertType, s schedule.Schedule, item actionitem.ActionItem, today time.Time) alertOutcome {
	out := alertOutcome{Outcome: Outcome{ItemID: item.ID}}
	logger := e.log.With().
		Str("pass", PassAlerts).
		Str("alert_type", string(typ)).
		Str("schedule", s.Name.Label()).
		Str("action_item_id", item.ID).
		Logger()

	if len(item.AssigneeIDs) == 0 {
		out.result = alertNoAssignee
		logger.Debug().Msg("no assignee")
		return out
	}

	user, err := e.users.User(ctx, item.AssigneeIDs[0])
	if err != nil {
		out.Err = fmt.Errorf("load assignee %s: %w", item.AssigneeIDs[0], err)
		logger.Warn().Err(out.Err).Msg("alert failed")
		return out
	}
	org := user.OrganizationID
	if org == "" {
		org = item.Metadata.OrganizationID
	}

	alert := actionitem.Alert{
		ID:             e.ids.Generate(),
		SenderID:       user.ID,
		ReceiverID:     user.ID,
		Type:           typ,
		OrganizationID: org,
		ActionItemID:   item.ID,
		AlertDate:      today,
		CreatedAt:      e.clock.Now(),
	}
	created, err := e.alerts.Emit(ctx, alert)
	if err != nil {
		out.Err = fmt.Errorf("emit alert: %w", err)
		logger.Warn().Err(out.Err).Msg("alert failed")
		return out
	}
	if !created {
		out.result = alertAlreadySent
		logger.Debug().Msg("alert already sent")
		return out
	}
	out.result = alertCreated
	logger.Debug().Str("receiver_id", user.ID).Msg("alert created")
	return out
}
