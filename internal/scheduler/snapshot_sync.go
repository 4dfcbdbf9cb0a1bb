// Package scheduler contains the cron-backed services that drive periodic
// ingestion and health checks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/nvezzaro/social-tracker-api/internal/config"
	"github.com/nvezzaro/social-tracker-api/internal/usecases/ingesting"
)

type SnapshotSyncConfig struct {
	CronSchedule string
	Enabled      bool
}

// SnapshotSyncService triggers ingestion runs on a schedule. The in-process
// guard only stops this instance from overlapping itself; cross-instance
// serialization is the snapshot store's advisory lock.
type SnapshotSyncService struct {
	scheduler           *gocron.Scheduler
	collector           ingesting.Collector
	ingester            ingesting.Ingester
	config              SnapshotSyncConfig
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
}

func NewSnapshotSyncService(
	collector ingesting.Collector,
	ingester ingesting.Ingester,
	cfg *config.Config,
) *SnapshotSyncService {
	syncConfig := SnapshotSyncConfig{
		CronSchedule: cfg.SnapshotSync.CronSchedule,
		Enabled:      cfg.SnapshotSync.Enabled,
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule": syncConfig.CronSchedule,
		"enabled":       syncConfig.Enabled,
	}).Info("snapshot sync scheduler configured")

	return &SnapshotSyncService{
		scheduler: gocron.NewScheduler(time.Local),
		collector: collector,
		ingester:  ingester,
		config:    syncConfig,
	}
}

func (s *SnapshotSyncService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logrus.Info("snapshot sync disabled by configuration")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("starting snapshot sync cron")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		if err := s.RunSync(ctx); err != nil {
			logrus.WithError(err).Error("scheduled snapshot sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule snapshot sync: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("stopping snapshot sync cron")
		s.scheduler.Stop()
	}()

	return nil
}

func (s *SnapshotSyncService) RunSync(ctx context.Context) error {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Warn("snapshot sync already running, skipping trigger")
		return nil
	}
	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	s.syncMutex.Unlock()

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.lastSyncCompletedAt = time.Now()
		s.syncMutex.Unlock()
	}()

	measurements, err := s.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect measurements: %w", err)
	}

	if len(measurements) == 0 {
		logrus.Info("collector returned no measurements, nothing to ingest")
		return nil
	}

	summary, err := s.ingester.Run(ctx, measurements)
	if err != nil {
		return fmt.Errorf("ingestion run failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"inserted":         summary.Result.Inserted,
		"skipped":          summary.Result.Skipped,
		"failed":           summary.Result.Failed,
		"lock_unavailable": summary.Result.LockUnavailable,
		"duration_ms":      summary.Duration.Milliseconds(),
	}).Info("snapshot sync completed")

	return nil
}

// TriggerManualSync starts an ingestion run outside the schedule. The run
// itself still contends for the store's advisory lock like any other.
func (s *SnapshotSyncService) TriggerManualSync(ctx context.Context) {
	logrus.Info("manual snapshot sync triggered")
	go func() {
		if err := s.RunSync(ctx); err != nil {
			logrus.WithError(err).Error("manual snapshot sync failed")
		}
	}()
}

func (s *SnapshotSyncService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	return map[string]any{
		"sync_enabled":           s.config.Enabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_running":           s.syncRunning,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}
