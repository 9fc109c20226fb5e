// Fetches the latest prices and prints the message that would be posted,
// without touching the run state or any destination.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fuglede/slack-electricity-prices/config"
	"github.com/fuglede/slack-electricity-prices/currency"
	"github.com/fuglede/slack-electricity-prices/energidataservice"
	"github.com/fuglede/slack-electricity-prices/update"
	"github.com/lmittmann/tint"
)

func main() {
	w := os.Stdout
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339Nano,
		}),
	))

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	src := energidataservice.New(currency.New())
	message, _, err := update.Compose(ctx, src, cnfg.Prices.GetZones())
	if err != nil {
		panic(err)
	}

	fmt.Println(message)
}
