package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/fuglede/slack-electricity-prices/config"
	"github.com/fuglede/slack-electricity-prices/currency"
	"github.com/fuglede/slack-electricity-prices/database"
	"github.com/fuglede/slack-electricity-prices/energidataservice"
	"github.com/fuglede/slack-electricity-prices/logging"
	"github.com/fuglede/slack-electricity-prices/notify"
	"github.com/fuglede/slack-electricity-prices/task"
	"github.com/fuglede/slack-electricity-prices/www"
	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	daemon := flag.Bool("daemon", false, "keep running and post on schedule")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("notifier is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	src := energidataservice.New(currency.New())
	sender := notify.NewSender(logger.With("module", "notify"))

	// Destinations on the command line win over the config file.
	if args := flag.Args(); len(args) > 0 {
		viper.Set("notify.destinations", args)
	}

	if !*daemon {
		dests := notify.ClassifyAll(config.Destinations())
		if err := task.RunPost(ctx, logger.With("module", "post"), db, src, sender, cnfg, dests); err != nil {
			exitWithError(logger, err)
		}
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config file changed", slog.String("file", e.Name))
	})
	viper.WatchConfig()

	tasks := task.NewTasks(db, src, sender, cnfg)
	tasks.Run()
	defer tasks.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server := www.StartServer(db, cnfg, Version)
	server.Run(ctx)
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}

	// Give the database log handler a moment before the process dies.
	time.Sleep(2 * time.Second)
	os.Exit(1)
}
