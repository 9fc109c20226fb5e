package www

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fuglede/slack-electricity-prices/database"
	"github.com/fuglede/slack-electricity-prices/logging"
	"github.com/fuglede/slack-electricity-prices/slice"
)

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Attrs     string `json:"attrs,omitempty"`
}

func NewLogHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		page, pageSize := pagination(r)

		minLvl := slog.LevelDebug
		if lvl := r.URL.Query().Get("level"); lvl != "" {
			minLvl = logging.ParseLevel(lvl)
		}

		entries, err := db.GetLogEntries(r.Context(), minLvl, page, pageSize)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		payload := slice.Map(entries, func(e database.LogEntryRow) logEntry {
			return logEntry{
				Timestamp: e.Timestamp.Format(time.RFC3339),
				Level:     slog.Level(e.Level).String(),
				Message:   e.Message,
				Attrs:     e.Attrs,
			}
		})

		writeJSON(logger, w, payload)
	}
}

// pagination reads page/pageSize query parameters, defaulting to the first
// 25 entries.
func pagination(r *http.Request) (int, int) {
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	pageSize := 25
	if ps, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && ps > 0 {
		pageSize = ps
	}
	return page, pageSize
}
