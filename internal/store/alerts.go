package store

import (
	"context"
	"fmt"

	"github.com/roach88/cadence/internal/actionitem"
)

// Emit stores an alert. Uses ON CONFLICT DO NOTHING on (action item, type,
// day): a second alert of the same type for the same item on the same day is
// dropped and reported with created = false. Implements engine.AlertEmitter.
func (s *Store) Emit(ctx context.Context, a actionitem.Alert) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts
		(id, sender_id, receiver_id, type, organization_id, action_item_id, alert_day, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(action_item_id, type, alert_day) DO NOTHING
	`,
		a.ID,
		a.SenderID,
		a.ReceiverID,
		string(a.Type),
		a.OrganizationID,
		a.ActionItemID,
		formatDay(a.AlertDate, s.loc),
		formatInstant(a.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("emit alert for %s: %w", a.ActionItemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("emit alert for %s: %w", a.ActionItemID, err)
	}
	return n == 1, nil
}
