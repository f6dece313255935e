package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/calendar"
	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/schedule"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const itemColumns = `
	id, name, description, status, due_date, completion_date,
	is_recurrent, recurrent_schedule, is_required, parent_action_item_id,
	meta_type, meta_reference_id, meta_organization_id,
	COALESCE(meta_is_reviewed, 0), meta_required_evidence`

// engineCandidate restricts a selection to control items eligible for
// successor generation.
const engineCandidate = `
	is_recurrent = 1
	AND recurrent_schedule = ?
	AND meta_type = 'control'
	AND COALESCE(meta_is_reviewed, 0) = 0`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, loc *time.Location) (actionitem.ActionItem, error) {
	var (
		item       actionitem.ActionItem
		status     string
		due        string
		completion sql.NullString
		sched      string
		parent     sql.NullString
		metaType   string
		evidence   string
	)
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &status, &due, &completion,
		&item.IsRecurrent, &sched, &item.IsRequired, &parent,
		&metaType, &item.Metadata.ReferenceID, &item.Metadata.OrganizationID,
		&item.Metadata.IsReviewed, &evidence,
	)
	if err != nil {
		return actionitem.ActionItem{}, err
	}

	item.Status = actionitem.Status(status)
	item.RecurrentSchedule = schedule.Name(sched)
	item.Metadata.Type = actionitem.Type(metaType)
	item.Metadata.RequiredEvidence = actionitem.RequiredEvidence(evidence)

	if item.DueDate, err = parseInstant(due, loc); err != nil {
		return actionitem.ActionItem{}, err
	}
	if completion.Valid {
		t, err := parseInstant(completion.String, loc)
		if err != nil {
			return actionitem.ActionItem{}, err
		}
		item.CompletionDate = &t
	}
	if parent.Valid {
		p := parent.String
		item.ParentActionItemID = &p
	}
	return item, nil
}

// queryItems runs an action-item query and loads assignees and controls.
// Rows are drained before relations are loaded: the pool has one connection.
func queryItems(ctx context.Context, q querier, loc *time.Location, query string, args ...any) ([]actionitem.ActionItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var items []actionitem.ActionItem
	for rows.Next() {
		item, err := scanItem(rows, loc)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan action item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range items {
		if err := loadRelations(ctx, q, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func loadRelations(ctx context.Context, q querier, item *actionitem.ActionItem) error {
	assignees, err := queryStrings(ctx, q, `
		SELECT user_id FROM action_item_assignees
		WHERE action_item_id = ?
		ORDER BY position ASC, user_id ASC
	`, item.ID)
	if err != nil {
		return fmt.Errorf("load assignees of %s: %w", item.ID, err)
	}
	controls, err := queryStrings(ctx, q, `
		SELECT control_id FROM action_item_controls
		WHERE action_item_id = ?
		ORDER BY control_id ASC
	`, item.ID)
	if err != nil {
		return fmt.Errorf("load controls of %s: %w", item.ID, err)
	}
	item.AssigneeIDs = assignees
	item.ControlIDs = controls
	return nil
}

func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindDueForGeneration selects unreviewed recurring control items of the
// schedule due on effective.
func (s *Store) FindDueForGeneration(ctx context.Context, name schedule.Name, effective time.Time) ([]actionitem.ActionItem, error) {
	items, err := queryItems(ctx, s.db, s.loc, `
		SELECT `+itemColumns+`
		FROM action_items
		WHERE `+engineCandidate+`
		AND due_day = ?
		ORDER BY due_date ASC, id ASC
	`, string(name), formatDay(effective, s.loc))
	if err != nil {
		return nil, fmt.Errorf("find due for generation: %w", err)
	}
	return items, nil
}

// FindDueForBackfill selects unreviewed recurring control items of the
// schedule due on any candidate day.
func (s *Store) FindDueForBackfill(ctx context.Context, name schedule.Name, candidates []time.Time) ([]actionitem.ActionItem, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	args := append([]any{string(name)}, dayArgs(candidates, s.loc)...)
	items, err := queryItems(ctx, s.db, s.loc, `
		SELECT `+itemColumns+`
		FROM action_items
		WHERE `+engineCandidate+`
		AND due_day IN (`+placeholders(len(candidates))+`)
		ORDER BY due_date ASC, id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("find due for backfill: %w", err)
	}
	return items, nil
}

// FindForPastDueAlert selects NEW control items of q.Schedule due on one of
// q.Dates or, with q.WeekdayMatch, due before q.Today on the same weekday.
func (s *Store) FindForPastDueAlert(ctx context.Context, q engine.PastDueQuery) ([]actionitem.ActionItem, error) {
	var (
		match []string
		args  = []any{string(q.Schedule)}
	)
	if len(q.Dates) > 0 {
		match = append(match, "due_day IN ("+placeholders(len(q.Dates))+")")
		args = append(args, dayArgs(q.Dates, s.loc)...)
	}
	if q.WeekdayMatch {
		today := formatDay(q.Today, s.loc)
		match = append(match, "(due_day < ? AND strftime('%w', due_day) = strftime('%w', ?))")
		args = append(args, today, today)
	}
	if len(match) == 0 {
		return nil, nil
	}

	where := match[0]
	for _, m := range match[1:] {
		where += " OR " + m
	}
	items, err := queryItems(ctx, s.db, s.loc, `
		SELECT `+itemColumns+`
		FROM action_items
		WHERE recurrent_schedule = ?
		AND status = 'NEW'
		AND meta_type = 'control'
		AND (`+where+`)
		ORDER BY due_date ASC, id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("find for past-due alert: %w", err)
	}
	return items, nil
}

// FindForFutureDueAlert selects control items of the schedule due on one of
// dates.
func (s *Store) FindForFutureDueAlert(ctx context.Context, name schedule.Name, dates []time.Time) ([]actionitem.ActionItem, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	args := append([]any{string(name)}, dayArgs(dates, s.loc)...)
	items, err := queryItems(ctx, s.db, s.loc, `
		SELECT `+itemColumns+`
		FROM action_items
		WHERE recurrent_schedule = ?
		AND meta_type = 'control'
		AND due_day IN (`+placeholders(len(dates))+`)
		ORDER BY due_date ASC, id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("find for future-due alert: %w", err)
	}
	return items, nil
}

// GetActionItem returns one item with its relations.
func (s *Store) GetActionItem(ctx context.Context, id string) (actionitem.ActionItem, error) {
	return getActionItem(ctx, s.db, s.loc, id)
}

func getActionItem(ctx context.Context, q querier, loc *time.Location, id string) (actionitem.ActionItem, error) {
	items, err := queryItems(ctx, q, loc, `
		SELECT `+itemColumns+` FROM action_items WHERE id = ?
	`, id)
	if err != nil {
		return actionitem.ActionItem{}, fmt.Errorf("get action item: %w", err)
	}
	if len(items) == 0 {
		return actionitem.ActionItem{}, fmt.Errorf("action item %s: %w", id, ErrNotFound)
	}
	return items[0], nil
}

// ListActionItems returns every item ordered by due date then id.
func (s *Store) ListActionItems(ctx context.Context) ([]actionitem.ActionItem, error) {
	items, err := queryItems(ctx, s.db, s.loc, `
		SELECT `+itemColumns+` FROM action_items
		ORDER BY due_date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list action items: %w", err)
	}
	return items, nil
}

// ListByReference returns every item sharing a metadata reference id.
func (s *Store) ListByReference(ctx context.Context, referenceID string) ([]actionitem.ActionItem, error) {
	items, err := queryItems(ctx, s.db, s.loc, `
		SELECT `+itemColumns+` FROM action_items
		WHERE meta_reference_id = ?
		ORDER BY due_date ASC, id ASC
	`, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list by reference: %w", err)
	}
	return items, nil
}

// ChainHead returns the head id of id's recurrence chain.
func (s *Store) ChainHead(ctx context.Context, id string) (string, error) {
	var head string
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(NULLIF(parent_action_item_id, ''), id)
		FROM action_items WHERE id = ?
	`, id).Scan(&head)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("action item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("chain head: %w", err)
	}
	return head, nil
}

// ListChain returns every occurrence of the chain containing id, oldest
// first. Children point at the head directly, so one query suffices.
func (s *Store) ListChain(ctx context.Context, id string) ([]actionitem.ActionItem, error) {
	head, err := s.ChainHead(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := queryItems(ctx, s.db, s.loc, `
		SELECT `+itemColumns+` FROM action_items
		WHERE id = ? OR parent_action_item_id = ?
		ORDER BY due_date ASC, id ASC
	`, head, head)
	if err != nil {
		return nil, fmt.Errorf("list chain: %w", err)
	}
	return items, nil
}

// User resolves an assignee. Implements engine.Directory.
func (s *Store) User(ctx context.Context, id string) (actionitem.User, error) {
	var u actionitem.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, organization_id FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.OrganizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return actionitem.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return actionitem.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListControls returns every control ordered by id.
func (s *Store) ListControls(ctx context.Context) ([]actionitem.Control, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, organization_id, has_new_action_items
		FROM controls ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}
	defer rows.Close()

	var out []actionitem.Control
	for rows.Next() {
		var c actionitem.Control
		if err := rows.Scan(&c.ID, &c.Name, &c.OrganizationID, &c.HasNewActionItems); err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListAlerts returns the alerts of one item in emission order. An empty
// itemID lists every alert.
func (s *Store) ListAlerts(ctx context.Context, itemID string) ([]actionitem.Alert, error) {
	query := `
		SELECT id, sender_id, receiver_id, type, organization_id,
		       action_item_id, alert_day, created_at
		FROM alerts`
	var args []any
	if itemID != "" {
		query += ` WHERE action_item_id = ?`
		args = append(args, itemID)
	}
	query += ` ORDER BY rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []actionitem.Alert
	for rows.Next() {
		var (
			a       actionitem.Alert
			typ     string
			day     string
			created string
		)
		if err := rows.Scan(&a.ID, &a.SenderID, &a.ReceiverID, &typ, &a.OrganizationID,
			&a.ActionItemID, &day, &created); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Type = actionitem.AlertType(typ)
		if a.AlertDate, err = calendar.ParseDay(day, s.loc); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = parseInstant(created, s.loc); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
