package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fuglede/slack-electricity-prices/logging"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16
}

type AppConfigDatabase struct {
	Path string
	// How many days archived prices should be stored before they get purged
	DataRetentionDays *int `mapstructure:"data_retention_days"`
	// How many days daily backup files should be stored before they get deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 90
	}
	return *d.DataRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 90
	}
	return *d.BackupRetentionDays
}

type AppConfigPrices struct {
	// Price areas to post, in message order, default: ["DK1", "DK2"]
	Zones []string `mapstructure:"zones"`
	// Area probed when checking whether tomorrow's prices are out, default: last of Zones
	ReferenceZone *string `mapstructure:"reference_zone"`
	// How often to check for new prices; the task itself decides whether to post
	RunAt string `mapstructure:"run_at"`
}

func (p AppConfigPrices) GetZones() []string {
	if len(p.Zones) == 0 {
		return []string{"DK1", "DK2"}
	}
	return p.Zones
}

func (p AppConfigPrices) GetReferenceZone() string {
	if p.ReferenceZone == nil {
		zones := p.GetZones()
		return zones[len(zones)-1]
	}
	return *p.ReferenceZone
}

func (p AppConfigPrices) GetRunAt() string {
	if p.RunAt == "" {
		// Prices are published around 12:30 Danish time, so poll the
		// afternoon away regardless of the host's timezone.
		return "CRON_TZ=Europe/Copenhagen */10 12-23 * * *"
	}
	return p.RunAt
}

type AppConfigNotify struct {
	// Slack webhook URLs and Mastodon "instance?token" strings
	Destinations []string `mapstructure:"destinations"`
}

type AppConfigLogging struct {
	// Min log level for database: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	if l.DbLevel == nil {
		return slog.LevelInfo
	}
	return logging.ParseLevel(*l.DbLevel)
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	if l.ConsoleLevel == nil {
		return slog.LevelInfo
	}
	return logging.ParseLevel(*l.ConsoleLevel)
}

type AppConfig struct {
	Api      AppConfigApi
	Database AppConfigDatabase
	Prices   AppConfigPrices
	Notify   AppConfigNotify
	Logging  AppConfigLogging
}

func Load(path string) (*AppConfig, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath("config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}

// Destinations reads the live value rather than the snapshot taken at
// startup, so edits to the config file reach the next posting run without
// a restart.
func Destinations() []string {
	return viper.GetStringSlice("notify.destinations")
}
