package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App          App          `mapstructure:",squash"`
	Database     Database     `mapstructure:",squash"`
	Feed         Feed         `mapstructure:",squash"`
	Slack        Slack        `mapstructure:",squash"`
	SnapshotSync SnapshotSync `mapstructure:",squash"`
	HealthCheck  HealthCheck  `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

// Feed points at the scraping collaborator delivering parsed measurements.
type Feed struct {
	URL            string `mapstructure:"feed_url"`
	AccessToken    string `mapstructure:"feed_access_token"`
	TimeoutSeconds int    `mapstructure:"feed_timeout_seconds"`
}

type Slack struct {
	WebhookURL string `mapstructure:"slack_webhook_url"`
}

type SnapshotSync struct {
	CronSchedule      string `mapstructure:"snapshot_sync_cron"`
	Enabled           bool   `mapstructure:"snapshot_sync_enabled"`
	RecentWindowHours int    `mapstructure:"snapshot_recent_window_hours"`
}

type HealthCheck struct {
	CronSchedule        string `mapstructure:"health_check_cron"`
	Enabled             bool   `mapstructure:"health_check_enabled"`
	CadenceHours        int    `mapstructure:"health_cadence_hours"`
	StaleThresholdHours int    `mapstructure:"health_stale_threshold_hours"`
}

func SetDefaults() {
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	// Registered empty so AutomaticEnv can see it; NewConfig refuses to run
	// without a real value.
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("FEED_URL", "")
	viper.SetDefault("FEED_ACCESS_TOKEN", "")
	viper.SetDefault("FEED_TIMEOUT_SECONDS", 30)

	viper.SetDefault("SLACK_WEBHOOK_URL", "")

	viper.SetDefault("SNAPSHOT_SYNC_CRON", "0 */6 * * *")
	viper.SetDefault("SNAPSHOT_SYNC_ENABLED", false)
	viper.SetDefault("SNAPSHOT_RECENT_WINDOW_HOURS", 4)

	viper.SetDefault("HEALTH_CHECK_CRON", "30 * * * *")
	viper.SetDefault("HEALTH_CHECK_ENABLED", false)
	viper.SetDefault("HEALTH_CADENCE_HOURS", 6)
	viper.SetDefault("HEALTH_STALE_THRESHOLD_HOURS", 8)
}

func NewConfig() (*Config, error) {
	loadEnvFile()

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Debug("no .env readable by viper, relying on environment: ", err)
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	// A tracker without a store is useless; refuse to start half-configured.
	if config.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("could not determine working directory: ", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info(".env loaded from: ", location)
			return
		}
	}
}
