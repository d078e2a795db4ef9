package db

import (
	"context"
	"fmt"
	"time"
)

// DeleteOlderThan removes records created more than age ago and returns how
// many were deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age < 0 {
		return 0, fmt.Errorf("age must be non-negative, got %v", age)
	}
	cutoff := time.Now().Add(-age).UnixMilli()

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	conn, err := r.db.conn()
	if err != nil {
		return 0, err
	}

	res, err := conn.ExecContext(ctx, "DELETE FROM summaries WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old summaries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted count: %w", err)
	}
	return n, nil
}

// Vacuum reclaims space freed by deletions.
func (d *Database) Vacuum(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn, err := d.conn()
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	return nil
}

// RunRetention deletes records older than age every interval until ctx is
// done. Each pass reports its result through report, which may be nil.
func (r *Repository) RunRetention(ctx context.Context, age, interval time.Duration, report func(deleted int64, err error)) {
	if age <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := r.DeleteOlderThan(ctx, age)
		if report != nil && ctx.Err() == nil {
			report(n, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
