package health

import (
	"time"

	"github.com/pkg/errors"
	"github.com/nvezzaro/social-tracker-api/infrastructure/repository"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
	"github.com/nvezzaro/social-tracker-api/pkg/utils"
)

// Reporter classifies snapshot freshness for operational alerting.
type Reporter interface {
	Report(cadenceHours, staleThresholdHours int) (*domain.HealthReport, error)
}

type Service struct {
	snapshotRepo repository.SnapshotRepository
	now          func() time.Time
}

func NewService(snapshotRepo repository.SnapshotRepository) Reporter {
	return &Service{
		snapshotRepo: snapshotRepo,
		now:          time.Now,
	}
}

func (s *Service) Report(cadenceHours, staleThresholdHours int) (*domain.HealthReport, error) {
	activities, err := s.snapshotRepo.PlatformActivity()
	if err != nil {
		return nil, errors.Wrap(err, "fetching platform activity")
	}

	now := s.now()
	threshold := time.Duration(staleThresholdHours) * time.Hour

	byPlatform := make(map[domain.Platform]*domain.PlatformActivity, len(activities))
	for _, activity := range activities {
		byPlatform[activity.Platform] = activity
	}

	report := &domain.HealthReport{
		GeneratedAt:         now,
		CadenceHours:        cadenceHours,
		StaleThresholdHours: staleThresholdHours,
		Platforms:           make([]domain.PlatformHealth, 0, len(domain.Platforms)),
	}

	stale, missing := 0, 0
	for _, platform := range domain.Platforms {
		activity, exists := byPlatform[platform]
		if !exists {
			missing++
			report.Platforms = append(report.Platforms, domain.PlatformHealth{
				Platform:  platform,
				Freshness: domain.FreshnessMissing,
			})
			continue
		}

		age := now.Sub(activity.LatestAt)
		ageHours := utils.RoundWithTwoDecimalPlace(age.Hours())
		latestAt := activity.LatestAt

		freshness := domain.FreshnessFresh
		if age > threshold {
			freshness = domain.FreshnessStale
			stale++
		}

		report.Platforms = append(report.Platforms, domain.PlatformHealth{
			Platform:     platform,
			Freshness:    freshness,
			LatestAt:     &latestAt,
			AgeHours:     &ageHours,
			Snapshots24h: activity.Snapshots24h,
			Handles24h:   activity.Handles24h,
		})

		report.Snapshots24h += activity.Snapshots24h

		if report.LatestSnapshotAt == nil || latestAt.After(*report.LatestSnapshotAt) {
			report.LatestSnapshotAt = &latestAt
		}
	}

	report.Status = classify(report, now, threshold, stale, missing)
	return report, nil
}

// classify folds the per-platform picture into the overall tri-state.
// Healthy requires a fresh global snapshot and no individually stale
// platform; a single broken integration reads degraded, not stale. Platforms
// that were never scraped count toward the everything-is-down check only.
func classify(report *domain.HealthReport, now time.Time, threshold time.Duration, stale, missing int) domain.HealthStatus {
	if report.LatestSnapshotAt == nil {
		return domain.HealthStatusStale
	}

	globalAge := now.Sub(*report.LatestSnapshotAt)
	ageHours := utils.RoundWithTwoDecimalPlace(globalAge.Hours())
	report.LatestAgeHours = &ageHours

	if globalAge > threshold || stale+missing == len(domain.Platforms) {
		return domain.HealthStatusStale
	}

	if stale > 0 {
		return domain.HealthStatusDegraded
	}

	return domain.HealthStatusHealthy
}
