package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/nvezzaro/social-tracker-api/infrastructure/collector/feed"
	"github.com/nvezzaro/social-tracker-api/infrastructure/database/postgres"
	"github.com/nvezzaro/social-tracker-api/infrastructure/notifier/slack"
	"github.com/nvezzaro/social-tracker-api/infrastructure/repository"
	"github.com/nvezzaro/social-tracker-api/internal/config"
	"github.com/nvezzaro/social-tracker-api/internal/scheduler"
	"github.com/nvezzaro/social-tracker-api/internal/usecases/anomaly"
	"github.com/nvezzaro/social-tracker-api/internal/usecases/health"
	"github.com/nvezzaro/social-tracker-api/internal/usecases/ingesting"
)

func main() {
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("invalid log level %q, falling back to info", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	recentWindow := time.Duration(cfg.SnapshotSync.RecentWindowHours) * time.Hour
	snapshotRepo := repository.NewSnapshotRepository(pgConn, recentWindow)

	notifier := slack.NewClient(cfg)
	detector := anomaly.NewService(snapshotRepo)
	reporter := health.NewService(snapshotRepo)
	ingester := ingesting.NewService(snapshotRepo, detector, notifier)

	collector := feed.NewClient(cfg)

	snapshotSyncService := scheduler.NewSnapshotSyncService(collector, ingester, cfg)
	healthCheckService := scheduler.NewHealthCheckService(reporter, notifier, cfg)

	if err := snapshotSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start snapshot sync scheduler")
	}

	if err := healthCheckService.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start health check scheduler")
	}

	logrus.Info("social tracker started")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		logrus.Info("interrupt received, shutting down")
	case <-ctx.Done():
		logrus.Info("application context cancelled")
	}
}

func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to PostgreSQL")
	}

	if err := conn.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to ping PostgreSQL")
	}

	logrus.Info("PostgreSQL connection established")
	return conn
}
