package store

import (
	"context"
	"fmt"
	"time"
)

// AcquireRunLock takes the named lease for owner until now+ttl. The lease is
// granted when it is free, expired, or already held by owner (renewal).
// Returns ErrLockHeld otherwise.
func (s *Store) AcquireRunLock(ctx context.Context, name, owner string, ttl time.Duration, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO run_locks (name, owner, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			owner = excluded.owner,
			expires_at = excluded.expires_at
		WHERE run_locks.expires_at <= ? OR run_locks.owner = excluded.owner
	`, name, owner, now.Add(ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("acquire run lock %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquire run lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("acquire run lock %s: %w", name, ErrLockHeld)
	}
	return nil
}

// ReleaseRunLock drops the lease if owner holds it.
func (s *Store) ReleaseRunLock(ctx context.Context, name, owner string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM run_locks WHERE name = ? AND owner = ?
	`, name, owner)
	if err != nil {
		return fmt.Errorf("release run lock %s: %w", name, err)
	}
	return nil
}
