package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuglede/slack-electricity-prices/database"
)

// SQLiteHandler persists log records to the database, attrs as JSON, so the
// log survives restarts and can be served over the API.
type SQLiteHandler struct {
	db       *database.Database
	minLevel slog.Level
}

func NewSQLiteHandler(db *database.Database, minLevel slog.Level) *SQLiteHandler {
	return &SQLiteHandler{db: db, minLevel: minLevel}
}

func (h *SQLiteHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.minLevel {
		return nil
	}

	attrs := make(map[string]string, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})

	attrsStr := ""
	if len(attrs) > 0 {
		b, err := json.Marshal(attrs)
		if err != nil {
			attrsStr = fmt.Sprintf(`{"error": %q}`, err.Error())
		} else {
			attrsStr = string(b)
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return h.db.SaveLogEntry(ctx, database.LogEntryRow{
		Timestamp: ts,
		Level:     int(r.Level),
		Message:   r.Message,
		Attrs:     attrsStr,
	})
}

func (h *SQLiteHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *SQLiteHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *SQLiteHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel
}
