package www

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fuglede/slack-electricity-prices/config"
	"github.com/fuglede/slack-electricity-prices/convert"
	"github.com/fuglede/slack-electricity-prices/database"
	"github.com/fuglede/slack-electricity-prices/slice"
	"github.com/fuglede/slack-electricity-prices/summary"
	"github.com/fuglede/slack-electricity-prices/types"
)

type statusPrice struct {
	Hour      string  `json:"hour"`
	DkkPerMWh float64 `json:"dkkPerMWh"`
}

type statusZone struct {
	Zone    string       `json:"zone"`
	Date    string       `json:"date,omitempty"`
	Lowest  *statusPrice `json:"lowest,omitempty"`
	Highest *statusPrice `json:"highest,omitempty"`
	Mean    float64      `json:"meanDkkPerMWh,omitempty"`
}

type statusPayload struct {
	Version    string       `json:"version"`
	LastUpdate string       `json:"lastUpdate,omitempty"`
	Zones      []statusZone `json:"zones"`
}

func statusSnapshot(ctx context.Context, db *database.Database, cnfg *config.AppConfig, version string) (statusPayload, error) {
	payload := statusPayload{Version: version}

	last, ok, err := db.LastUpdate(ctx)
	if err != nil {
		return payload, err
	}
	if ok {
		payload.LastUpdate = last.Format(time.RFC3339)
	}

	for _, zone := range cnfg.Prices.GetZones() {
		sz := statusZone{Zone: zone}

		date, ok, err := db.LatestPriceDate(ctx, zone)
		if err != nil {
			return payload, err
		}
		if ok {
			rows, err := db.GetPricesForDate(ctx, zone, date)
			if err != nil {
				return payload, err
			}
			points := slice.Map(rows, func(r database.PriceRow) types.PricePoint {
				return types.PricePoint{Hour: r.When.HourDK(), Price: r.Price}
			})
			if sum, err := summary.Compute(points); err == nil {
				sz.Date = date
				sz.Lowest = &statusPrice{Hour: sum.Lowest.Hour, DkkPerMWh: sum.Lowest.Price}
				sz.Highest = &statusPrice{Hour: sum.Highest.Hour, DkkPerMWh: sum.Highest.Price}
				sz.Mean = convert.TwoDecimals(sum.Mean)
			}
		}

		payload.Zones = append(payload.Zones, sz)
	}

	return payload, nil
}

func NewStatusHandler(logger *slog.Logger, db *database.Database, cnfg *config.AppConfig, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		payload, err := statusSnapshot(r.Context(), db, cnfg, version)
		if err != nil {
			logger.Error("handling status request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(logger, w, payload)
	}
}
