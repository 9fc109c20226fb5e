package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fuglede/slack-electricity-prices/convert"
	"github.com/fuglede/slack-electricity-prices/hours"
)

type PriceRow struct {
	Zone  string
	When  hours.DateHour
	Price float64
}

// SavePrices archives one batch of spot prices. Re-posting the same hours
// overwrites the previous values.
func (d *Database) SavePrices(ctx context.Context, rows []PriceRow) error {
	for _, row := range rows {
		_, err := d.write.ExecContext(ctx, `
			INSERT INTO price_history (zone, date, hour, price) VALUES (?, ?, ?, ?)
			ON CONFLICT(zone, date, hour) DO UPDATE SET price = excluded.price`,
			row.Zone,
			row.When.Date,
			row.When.Hour,
			convert.RoundFloat64(row.Price, 4))
		if err != nil {
			return fmt.Errorf("saving price for %s %s: %w", row.Zone, row.When, err)
		}
	}
	return nil
}

// GetPricesForDate returns the archived prices for one zone and date in
// hour order.
func (d *Database) GetPricesForDate(ctx context.Context, zone string, date string) ([]PriceRow, error) {
	rows, err := d.read.QueryContext(ctx, `SELECT
		zone, date, hour, price
		FROM price_history
		WHERE zone = ? AND date = ?
		ORDER BY hour ASC`,
		zone, date)
	if err != nil {
		return nil, fmt.Errorf("fetching prices for %s %s: %w", zone, date, err)
	}
	defer rows.Close()

	var prices []PriceRow
	for rows.Next() {
		var p PriceRow
		if err := rows.Scan(&p.Zone, &p.When.Date, &p.When.Hour, &p.Price); err != nil {
			return nil, fmt.Errorf("scanning price row: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading price rows: %w", err)
	}

	return prices, nil
}

// LatestPriceDate returns the most recent date for which a zone has archived
// prices, or false when the archive holds nothing for that zone.
func (d *Database) LatestPriceDate(ctx context.Context, zone string) (string, bool, error) {
	row := d.read.QueryRowContext(ctx,
		`SELECT date FROM price_history WHERE zone = ? ORDER BY date DESC LIMIT 1`, zone)

	var date string
	if err := row.Scan(&date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading latest price date: %w", err)
	}

	return date, true, nil
}

func (d *Database) PurgePriceHistory(ctx context.Context, retentionDays int) error {
	return d.purgeTable(ctx, "price_history", retentionDays)
}
