package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fuglede/slack-electricity-prices/database"
	"github.com/fuglede/slack-electricity-prices/slice"
)

type deliveryEntry struct {
	RunID       string `json:"runId"`
	CompletedAt string `json:"completedAt"`
	Kind        string `json:"kind"`
	Destination string `json:"destination"`
	Delivered   bool   `json:"delivered"`
	Error       string `json:"error,omitempty"`
}

func NewDeliveriesHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		page, pageSize := pagination(r)

		rows, err := db.GetDeliveries(r.Context(), page, pageSize)
		if err != nil {
			logger.Error("handling deliveries request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		payload := slice.Map(rows, func(row database.DeliveryRow) deliveryEntry {
			return deliveryEntry{
				RunID:       row.RunID,
				CompletedAt: row.CompletedAt.Format(time.RFC3339),
				Kind:        row.Kind,
				Destination: row.Destination,
				Delivered:   row.Error == "",
				Error:       row.Error,
			}
		})

		writeJSON(logger, w, payload)
	}
}
