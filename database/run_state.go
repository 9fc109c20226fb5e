package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LastUpdate returns the timestamp of the last completed posting run. The
// second return value is false when no run has ever been recorded.
func (d *Database) LastUpdate(ctx context.Context) (time.Time, bool, error) {
	row := d.read.QueryRowContext(ctx, `SELECT updated_at FROM run_state WHERE id = 1`)

	var ts string
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("reading run state: %w", err)
	}

	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing last update timestamp: %w", err)
	}

	return t, true, nil
}

func (d *Database) SetLastUpdate(ctx context.Context, t time.Time) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO run_state (id, updated_at) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		t.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving run state: %w", err)
	}
	return nil
}
