package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type DeliveryRow struct {
	RunID       string
	CompletedAt time.Time
	Kind        string
	Destination string
	Error       string
}

// SaveDeliveries journals the outcome of every destination attempted during
// one posting run. Error is empty for a successful delivery.
func (d *Database) SaveDeliveries(ctx context.Context, rows []DeliveryRow) error {
	for _, row := range rows {
		var deliveryErr sql.NullString
		if row.Error != "" {
			deliveryErr = sql.NullString{String: row.Error, Valid: true}
		}
		_, err := d.write.ExecContext(ctx, `
			INSERT INTO delivery (run_id, completed_at, kind, destination, error)
			VALUES (?, ?, ?, ?, ?)`,
			row.RunID,
			row.CompletedAt.UTC().Format(time.RFC3339),
			row.Kind,
			row.Destination,
			deliveryErr)
		if err != nil {
			return fmt.Errorf("saving delivery: %w", err)
		}
	}
	return nil
}

func (d *Database) GetDeliveries(ctx context.Context, page, pageSize int) ([]DeliveryRow, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT run_id, completed_at, kind, destination, error
		FROM delivery
		ORDER BY id DESC
		LIMIT ? OFFSET ?`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetching deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []DeliveryRow
	for rows.Next() {
		var r DeliveryRow
		var ts string
		var deliveryErr sql.NullString
		if err := rows.Scan(&r.RunID, &ts, &r.Kind, &r.Destination, &deliveryErr); err != nil {
			return nil, fmt.Errorf("scanning delivery row: %w", err)
		}
		r.CompletedAt, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing delivery timestamp: %w", err)
		}
		r.Error = deliveryErr.String
		deliveries = append(deliveries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading delivery rows: %w", err)
	}

	return deliveries, nil
}

func (d *Database) PurgeDeliveries(ctx context.Context, maxEntries int) error {
	d.logger.Debug("purging deliveries")
	_, err := d.write.ExecContext(ctx, `
		DELETE FROM delivery WHERE id <= (SELECT id FROM delivery ORDER BY id DESC LIMIT 1 OFFSET ?)`, maxEntries)
	if err != nil {
		return fmt.Errorf("purging deliveries: %w", err)
	}
	return nil
}
