package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/engine"
)

var _ engine.Tx = (*tx)(nil)

// InTx runs fn in one transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(engine.Tx) error) error {
	return s.inTx(ctx, func(t *tx) error { return fn(t) })
}

func (s *Store) inTx(ctx context.Context, fn func(*tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback() // No-op after commit

	if err := fn(&tx{q: sqlTx, loc: s.loc}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// tx implements engine.Tx over a SQL transaction.
type tx struct {
	q   querier
	loc *time.Location
}

// CreateActionItem inserts the item row. Relations are written separately.
func (t *tx) CreateActionItem(ctx context.Context, item actionitem.ActionItem) error {
	return insertActionItem(ctx, t.q, t.loc, item)
}

func insertActionItem(ctx context.Context, q querier, loc *time.Location, item actionitem.ActionItem) error {
	item.Normalize()
	if err := item.Validate(); err != nil {
		return fmt.Errorf("insert action item %s: %w", item.ID, err)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO action_items (
			id, name, description, status, due_date, due_day, completion_date,
			is_recurrent, recurrent_schedule, is_required, parent_action_item_id,
			meta_type, meta_reference_id, meta_organization_id,
			meta_is_reviewed, meta_required_evidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		item.Name,
		item.Description,
		string(item.Status),
		formatInstant(item.DueDate),
		formatDay(item.DueDate, loc),
		nullInstant(item.CompletionDate),
		boolInt(item.IsRecurrent),
		string(item.RecurrentSchedule),
		boolInt(item.IsRequired),
		nullString(item.ParentActionItemID),
		string(item.Metadata.Type),
		item.Metadata.ReferenceID,
		item.Metadata.OrganizationID,
		boolInt(item.Metadata.IsReviewed),
		string(item.Metadata.RequiredEvidence),
	)
	if err != nil {
		return fmt.Errorf("insert action item %s: %w", item.ID, err)
	}
	return nil
}

// CopyAssignees copies src's assignees to dst, keeping their order.
func (t *tx) CopyAssignees(ctx context.Context, srcID, dstID string) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO action_item_assignees (action_item_id, user_id, position)
		SELECT ?, user_id, position FROM action_item_assignees
		WHERE action_item_id = ?
		ON CONFLICT DO NOTHING
	`, dstID, srcID)
	if err != nil {
		return fmt.Errorf("copy assignees %s -> %s: %w", srcID, dstID, err)
	}
	return nil
}

// CopyControls copies src's controls to dst.
func (t *tx) CopyControls(ctx context.Context, srcID, dstID string) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO action_item_controls (action_item_id, control_id)
		SELECT ?, control_id FROM action_item_controls
		WHERE action_item_id = ?
		ON CONFLICT DO NOTHING
	`, dstID, srcID)
	if err != nil {
		return fmt.Errorf("copy controls %s -> %s: %w", srcID, dstID, err)
	}
	return nil
}

// ControlIDs lists the controls attached to an item.
func (t *tx) ControlIDs(ctx context.Context, itemID string) ([]string, error) {
	ids, err := queryStrings(ctx, t.q, `
		SELECT control_id FROM action_item_controls
		WHERE action_item_id = ?
		ORDER BY control_id ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("control ids of %s: %w", itemID, err)
	}
	return ids, nil
}

// BulkSetHasNewActionItems flags every listed control in one statement.
func (t *tx) BulkSetHasNewActionItems(ctx context.Context, controlIDs []string) error {
	if len(controlIDs) == 0 {
		return nil
	}
	_, err := t.q.ExecContext(ctx, `
		UPDATE controls SET has_new_action_items = 1
		WHERE id IN (`+placeholders(len(controlIDs))+`)
	`, stringArgs(controlIDs)...)
	if err != nil {
		return fmt.Errorf("flag controls: %w", err)
	}
	return nil
}

// MarkReviewed sets metadata.is_reviewed on one item.
func (t *tx) MarkReviewed(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE action_items SET meta_is_reviewed = 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("mark reviewed %s: %w", id, err)
	}
	return requireOneRow(res, "action item "+id)
}

func requireOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// CreateActionItem inserts an item together with its assignees (in order)
// and controls.
func (s *Store) CreateActionItem(ctx context.Context, item actionitem.ActionItem) error {
	return s.inTx(ctx, func(t *tx) error {
		return t.createWithRelations(ctx, item)
	})
}

func (t *tx) createWithRelations(ctx context.Context, item actionitem.ActionItem) error {
	if err := insertActionItem(ctx, t.q, t.loc, item); err != nil {
		return err
	}
	for pos, userID := range item.AssigneeIDs {
		if _, err := t.q.ExecContext(ctx, `
			INSERT INTO action_item_assignees (action_item_id, user_id, position)
			VALUES (?, ?, ?)
		`, item.ID, userID, pos); err != nil {
			return fmt.Errorf("assign %s to %s: %w", userID, item.ID, err)
		}
	}
	for _, controlID := range item.ControlIDs {
		if _, err := t.q.ExecContext(ctx, `
			INSERT INTO action_item_controls (action_item_id, control_id)
			VALUES (?, ?)
		`, item.ID, controlID); err != nil {
			return fmt.Errorf("attach control %s to %s: %w", controlID, item.ID, err)
		}
	}
	return nil
}

// CreateUser inserts or replaces a user.
func (s *Store) CreateUser(ctx context.Context, u actionitem.User) error {
	return upsertUser(ctx, s.db, u)
}

func upsertUser(ctx context.Context, q querier, u actionitem.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, name, email, organization_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			organization_id = excluded.organization_id
	`, u.ID, u.Name, u.Email, u.OrganizationID)
	if err != nil {
		return fmt.Errorf("write user %s: %w", u.ID, err)
	}
	return nil
}

// CreateControl inserts or replaces a control.
func (s *Store) CreateControl(ctx context.Context, c actionitem.Control) error {
	return upsertControl(ctx, s.db, c)
}

func upsertControl(ctx context.Context, q querier, c actionitem.Control) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO controls (id, name, organization_id, has_new_action_items) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			organization_id = excluded.organization_id,
			has_new_action_items = excluded.has_new_action_items
	`, c.ID, c.Name, c.OrganizationID, boolInt(c.HasNewActionItems))
	if err != nil {
		return fmt.Errorf("write control %s: %w", c.ID, err)
	}
	return nil
}

// TransitionStatus moves an item through the state machine and returns the
// updated item. Entering COMPLETED stamps completion_date with now.
func (s *Store) TransitionStatus(ctx context.Context, id string, to actionitem.Status, now time.Time) (actionitem.ActionItem, error) {
	var updated actionitem.ActionItem
	err := s.inTx(ctx, func(t *tx) error {
		item, err := getActionItem(ctx, t.q, t.loc, id)
		if err != nil {
			return err
		}
		if err := item.Transition(to, now); err != nil {
			return err
		}
		res, err := t.q.ExecContext(ctx, `
			UPDATE action_items SET status = ?, completion_date = ?
			WHERE id = ?
		`, string(item.Status), nullInstant(item.CompletionDate), id)
		if err != nil {
			return fmt.Errorf("update status of %s: %w", id, err)
		}
		if err := requireOneRow(res, "action item "+id); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return actionitem.ActionItem{}, err
	}
	return updated, nil
}
