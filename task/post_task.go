package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuglede/slack-electricity-prices/config"
	"github.com/fuglede/slack-electricity-prices/database"
	"github.com/fuglede/slack-electricity-prices/hours"
	"github.com/fuglede/slack-electricity-prices/notify"
	"github.com/fuglede/slack-electricity-prices/slice"
	"github.com/fuglede/slack-electricity-prices/types"
	"github.com/fuglede/slack-electricity-prices/update"
)

// NewPostTask returns the scheduled check for a new day of spot prices. The
// check also runs once right here, so an afternoon restart doesn't have to
// wait for the next cron slot.
func NewPostTask(logger *slog.Logger, db *database.Database, src types.PriceSource, sender *notify.Sender, cnfg *config.AppConfig) func() {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		// Destinations are read on every run so a config reload is honored.
		dests := notify.ClassifyAll(config.Destinations())
		if err := RunPost(ctx, logger, db, src, sender, cnfg, dests); err != nil {
			logger.Error("post task error", slog.Any("error", err))
		}
	}

	run()

	return run
}

// RunPost checks whether tomorrow's prices are out and, when they are, posts
// the summary to every destination and archives what was sent. Deciding not
// to post is a normal outcome, not an error.
func RunPost(
	ctx context.Context,
	logger *slog.Logger,
	db *database.Database,
	src types.PriceSource,
	sender *notify.Sender,
	cnfg *config.AppConfig,
	dests []notify.Destination,
) error {
	logger.Debug("running post task...")

	ok, err := update.Available(ctx, db, src, cnfg.Prices.GetReferenceZone(), hours.Now())
	if err != nil {
		return fmt.Errorf("checking for new prices: %w", err)
	}
	if !ok {
		logger.Debug("no new prices to post")
		return nil
	}

	report, err := update.Run(ctx, update.Params{
		Store:  db,
		Source: src,
		Sender: sender,
		Zones:  cnfg.Prices.GetZones(),
		Logger: logger,
	}, dests)
	if err != nil {
		return err
	}

	archivePrices(ctx, logger, db, report)
	journalDeliveries(ctx, logger, db, report)

	delivered := 0
	for _, r := range report.Deliveries {
		if r.Err == nil {
			delivered++
		}
	}
	logger.Info("post task done",
		slog.String("runId", report.RunID.String()),
		slog.Int("delivered", delivered),
		slog.Int("failed", len(report.Deliveries)-delivered))

	return nil
}

// archivePrices keeps a copy of what was posted. Failures here are logged
// and swallowed: the message is already out.
func archivePrices(ctx context.Context, logger *slog.Logger, db *database.Database, report update.Report) {
	for zone, points := range report.Zones {
		rows := make([]database.PriceRow, 0, len(points))
		for _, p := range points {
			when, err := hours.FromHourDK(p.Hour)
			if err != nil {
				logger.Warn("skipping price with unparsable hour",
					slog.String("zone", zone),
					slog.String("hour", p.Hour))
				continue
			}
			rows = append(rows, database.PriceRow{Zone: zone, When: when, Price: p.Price})
		}
		if err := db.SavePrices(ctx, rows); err != nil {
			logger.Error("archiving prices failed", slog.String("zone", zone), slog.Any("error", err))
		}
	}
}

func journalDeliveries(ctx context.Context, logger *slog.Logger, db *database.Database, report update.Report) {
	if len(report.Deliveries) == 0 {
		return
	}

	rows := slice.Map(report.Deliveries, func(r notify.Result) database.DeliveryRow {
		errStr := ""
		if r.Err != nil {
			errStr = r.Err.Error()
		}
		return database.DeliveryRow{
			RunID:       report.RunID.String(),
			CompletedAt: report.At,
			Kind:        r.Destination.Kind.String(),
			Destination: r.Destination.Redacted(),
			Error:       errStr,
		}
	})
	if err := db.SaveDeliveries(ctx, rows); err != nil {
		logger.Error("journaling deliveries failed", slog.Any("error", err))
	}
}
