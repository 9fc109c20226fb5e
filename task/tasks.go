package task

import (
	"context"
	"log/slog"

	"github.com/fuglede/slack-electricity-prices/config"
	"github.com/fuglede/slack-electricity-prices/database"
	"github.com/fuglede/slack-electricity-prices/notify"
	"github.com/fuglede/slack-electricity-prices/types"
	"github.com/robfig/cron/v3"
)

type Tasks struct {
	cron            *cron.Cron
	cnfg            *config.AppConfig
	PostTask        func()
	MaintenanceTask func()
}

func NewTasks(
	db *database.Database,
	src types.PriceSource,
	sender *notify.Sender,
	cnfg *config.AppConfig,
) *Tasks {
	logger := slog.Default().With("module", "tasks")
	return &Tasks{
		cron:            cron.New(),
		cnfg:            cnfg,
		PostTask:        NewPostTask(logger.With(slog.String("task", "post")), db, src, sender, cnfg),
		MaintenanceTask: NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg),
	}
}

func (t *Tasks) Run() {
	_, err := t.cron.AddFunc(t.cnfg.Prices.GetRunAt(), t.PostTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("30 2 * * *", t.MaintenanceTask)
	if err != nil {
		panic(err)
	}
	t.cron.Start()
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
