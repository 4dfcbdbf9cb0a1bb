package ingesting

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/nvezzaro/social-tracker-api/infrastructure/notifier/slack"
	"github.com/nvezzaro/social-tracker-api/infrastructure/repository"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
	"github.com/nvezzaro/social-tracker-api/internal/usecases/anomaly"
	"github.com/nvezzaro/social-tracker-api/pkg/log"
)

// Collector is the external scraping collaborator. It delivers one
// already-parsed measurement per tracked account per run; fetching itself is
// out of this core's hands.
type Collector interface {
	Collect(ctx context.Context) ([]domain.Measurement, error)
}

// Ingester runs one ingestion pass: anomaly check, batch insert, alert.
type Ingester interface {
	Run(ctx context.Context, measurements []domain.Measurement) (*domain.RunSummary, error)
}

type Service struct {
	snapshotRepo repository.SnapshotRepository
	detector     anomaly.Detector
	notifier     slack.Notifier
}

func NewService(
	snapshotRepo repository.SnapshotRepository,
	detector anomaly.Detector,
	notifier slack.Notifier,
) Ingester {
	return &Service{
		snapshotRepo: snapshotRepo,
		detector:     detector,
		notifier:     notifier,
	}
}

// Run inspects the batch against stored history, persists it and dispatches
// an alert when anything worth an operator's attention happened. Detection
// failures never block persistence; an insert that loses the advisory lock
// is a reportable outcome, not an error.
func (s *Service) Run(ctx context.Context, measurements []domain.Measurement) (*domain.RunSummary, error) {
	ctx, correlationID := log.WithCorrelationID(ctx)
	logger := log.ForContext(ctx)
	started := time.Now()

	logger.WithFields(log.Fields{
		"correlation_id": correlationID,
		"candidates":     len(measurements),
	}).Info("ingestion run started")

	anomalies, err := s.detector.Detect(measurements)
	if err != nil {
		logger.WithError(err).Error("anomaly check failed, persisting batch anyway")
		anomalies = nil
	}

	result, err := s.snapshotRepo.InsertBatch(ctx, measurements)
	if err != nil {
		return nil, errors.Wrap(err, "inserting snapshot batch")
	}

	summary := &domain.RunSummary{
		Result:    result,
		Anomalies: anomalies,
		Duration:  time.Since(started),
	}

	reasons := buildReasons(result, anomalies)
	if len(reasons) > 0 {
		summary.AlertSent = s.notifier.Send(domain.AlertReport{
			Reasons:       reasons,
			PlatformStats: platformStats(result),
			FailedHandles: result.FailedHandles(),
			Anomalies:     anomalies,
			StartedAt:     started,
			DurationMS:    time.Since(started).Milliseconds(),
		})
	}

	logger.WithFields(log.Fields{
		"inserted":   result.Inserted,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
		"anomalies":  len(anomalies),
		"alert_sent": summary.AlertSent,
	}).Info("ingestion run finished")

	return summary, nil
}

func buildReasons(result *domain.InsertResult, anomalies []domain.Anomaly) []string {
	reasons := make([]string, 0)

	if result.LockUnavailable {
		reasons = append(reasons, "batch skipped: a concurrent run holds the snapshot lock")
	}

	if result.Failed > 0 {
		reasons = append(reasons, fmt.Sprintf("%d candidate(s) failed to persist", result.Failed))
	}

	if len(anomalies) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d anomalous drop(s) detected", len(anomalies)))
	}

	return reasons
}

func platformStats(result *domain.InsertResult) map[domain.Platform]domain.PlatformStat {
	stats := make(map[domain.Platform]domain.PlatformStat)

	for _, detail := range result.Details {
		stat := stats[detail.Platform]
		if detail.Outcome == domain.InsertOutcomeFailed {
			stat.Failed++
		} else {
			stat.Succeeded++
		}
		stats[detail.Platform] = stat
	}

	return stats
}
