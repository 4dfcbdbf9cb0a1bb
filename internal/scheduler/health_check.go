package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/nvezzaro/social-tracker-api/infrastructure/notifier/slack"
	"github.com/nvezzaro/social-tracker-api/internal/config"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
	"github.com/nvezzaro/social-tracker-api/internal/usecases/health"
)

type HealthCheckConfig struct {
	CronSchedule        string
	Enabled             bool
	CadenceHours        int
	StaleThresholdHours int
}

// HealthCheckService periodically classifies snapshot freshness and alerts
// when the pipeline is not healthy.
type HealthCheckService struct {
	scheduler *gocron.Scheduler
	reporter  health.Reporter
	notifier  slack.Notifier
	config    HealthCheckConfig
	lastRunAt time.Time
}

func NewHealthCheckService(
	reporter health.Reporter,
	notifier slack.Notifier,
	cfg *config.Config,
) *HealthCheckService {
	checkConfig := HealthCheckConfig{
		CronSchedule:        cfg.HealthCheck.CronSchedule,
		Enabled:             cfg.HealthCheck.Enabled,
		CadenceHours:        cfg.HealthCheck.CadenceHours,
		StaleThresholdHours: cfg.HealthCheck.StaleThresholdHours,
	}

	return &HealthCheckService{
		scheduler: gocron.NewScheduler(time.Local),
		reporter:  reporter,
		notifier:  notifier,
		config:    checkConfig,
	}
}

func (s *HealthCheckService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logrus.Info("health check disabled by configuration")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("starting health check cron")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		if err := s.RunCheck(); err != nil {
			logrus.WithError(err).Error("scheduled health check failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule health check: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("stopping health check cron")
		s.scheduler.Stop()
	}()

	return nil
}

func (s *HealthCheckService) RunCheck() error {
	s.lastRunAt = time.Now()

	report, err := s.reporter.Report(s.config.CadenceHours, s.config.StaleThresholdHours)
	if err != nil {
		return fmt.Errorf("failed to build health report: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"status":       report.Status,
		"snapshots_24": report.Snapshots24h,
	}).Info("health check completed")

	if report.Status == domain.HealthStatusHealthy {
		return nil
	}

	delivered := s.notifier.Send(domain.AlertReport{
		Reasons:        healthReasons(report),
		DatabaseCounts: map[string]int{"snapshots_24h": report.Snapshots24h},
		StartedAt:      report.GeneratedAt,
	})
	if !delivered {
		logrus.Warn("health alert was not delivered")
	}

	return nil
}

func (s *HealthCheckService) GetStatus() map[string]any {
	return map[string]any{
		"check_enabled":         s.config.Enabled,
		"check_cron":            s.config.CronSchedule,
		"stale_threshold_hours": s.config.StaleThresholdHours,
		"last_run_at":           s.lastRunAt,
	}
}

func healthReasons(report *domain.HealthReport) []string {
	reasons := []string{fmt.Sprintf("snapshot pipeline is %s", report.Status)}

	if report.LatestAgeHours != nil {
		reasons = append(reasons, fmt.Sprintf("latest snapshot is %.1fh old (threshold %dh)",
			*report.LatestAgeHours, report.StaleThresholdHours))
	}

	for _, platform := range report.Platforms {
		if platform.Freshness == domain.FreshnessFresh {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("%s is %s", platform.Platform, platform.Freshness))
	}

	return reasons
}
