package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/nvezzaro/social-tracker-api/infrastructure/repository/mocks"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
	"go.uber.org/mock/gomock"
)

func TestService_Report(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	activity := func(platform domain.Platform, age time.Duration, snapshots, handles int) *domain.PlatformActivity {
		return &domain.PlatformActivity{
			Platform:     platform,
			LatestAt:     now.Add(-age),
			Snapshots24h: snapshots,
			Handles24h:   handles,
		}
	}

	tests := []struct {
		name       string
		activities []*domain.PlatformActivity
		validate   func(t *testing.T, report *domain.HealthReport)
	}{
		{
			name: "all platforms fresh is healthy",
			activities: []*domain.PlatformActivity{
				activity(domain.PlatformInstagram, 2*time.Hour, 120, 40),
				activity(domain.PlatformTikTok, 3*time.Hour, 80, 30),
				activity(domain.PlatformYouTube, 1*time.Hour, 25, 25),
				activity(domain.PlatformTwitter, 4*time.Hour, 10, 10),
			},
			validate: func(t *testing.T, report *domain.HealthReport) {
				assert.Equal(t, domain.HealthStatusHealthy, report.Status)
				assert.Equal(t, 235, report.Snapshots24h)
				require.NotNil(t, report.LatestAgeHours)
				assert.Equal(t, 1.0, *report.LatestAgeHours)
			},
		},
		{
			name: "one stale platform degrades the system",
			activities: []*domain.PlatformActivity{
				activity(domain.PlatformInstagram, 2*time.Hour, 120, 40),
				activity(domain.PlatformTikTok, 20*time.Hour, 5, 5),
				activity(domain.PlatformYouTube, 1*time.Hour, 25, 25),
				activity(domain.PlatformTwitter, 4*time.Hour, 10, 10),
			},
			validate: func(t *testing.T, report *domain.HealthReport) {
				assert.Equal(t, domain.HealthStatusDegraded, report.Status)

				statuses := make(map[domain.Platform]domain.PlatformFreshness)
				for _, p := range report.Platforms {
					statuses[p.Platform] = p.Freshness
				}
				assert.Equal(t, domain.FreshnessStale, statuses[domain.PlatformTikTok])
				assert.Equal(t, domain.FreshnessFresh, statuses[domain.PlatformInstagram])
			},
		},
		{
			name: "every platform stale or missing means the pipeline is down",
			activities: []*domain.PlatformActivity{
				activity(domain.PlatformInstagram, 30*time.Hour, 0, 0),
				activity(domain.PlatformTikTok, 40*time.Hour, 0, 0),
			},
			validate: func(t *testing.T, report *domain.HealthReport) {
				assert.Equal(t, domain.HealthStatusStale, report.Status)
			},
		},
		{
			name:       "no snapshots at all",
			activities: nil,
			validate: func(t *testing.T, report *domain.HealthReport) {
				assert.Equal(t, domain.HealthStatusStale, report.Status)
				assert.Nil(t, report.LatestSnapshotAt)

				for _, p := range report.Platforms {
					assert.Equal(t, domain.FreshnessMissing, p.Freshness)
				}
			},
		},
		{
			name: "missing platforms alone do not break healthy",
			activities: []*domain.PlatformActivity{
				activity(domain.PlatformInstagram, 2*time.Hour, 120, 40),
				activity(domain.PlatformTikTok, 3*time.Hour, 80, 30),
			},
			validate: func(t *testing.T, report *domain.HealthReport) {
				assert.Equal(t, domain.HealthStatusHealthy, report.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := mocks.NewMockSnapshotRepository(ctrl)
			mockRepo.EXPECT().PlatformActivity().Return(tt.activities, nil)

			service := &Service{
				snapshotRepo: mockRepo,
				now:          func() time.Time { return now },
			}

			report, err := service.Report(6, 8)
			require.NoError(t, err)
			require.Len(t, report.Platforms, len(domain.Platforms))
			assert.Equal(t, 6, report.CadenceHours)
			assert.Equal(t, 8, report.StaleThresholdHours)
			tt.validate(t, report)
		})
	}
}

func TestService_Report_GlobalAgeOverThresholdIsStale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// Newest snapshot 10h old against an 8h threshold: the whole pipeline
	// reads stale.
	mockRepo := mocks.NewMockSnapshotRepository(ctrl)
	mockRepo.EXPECT().PlatformActivity().Return([]*domain.PlatformActivity{
		{Platform: domain.PlatformInstagram, LatestAt: now.Add(-10 * time.Hour), Snapshots24h: 3, Handles24h: 3},
	}, nil)

	service := &Service{
		snapshotRepo: mockRepo,
		now:          func() time.Time { return now },
	}

	report, err := service.Report(6, 8)
	require.NoError(t, err)
	assert.Equal(t, domain.HealthStatusStale, report.Status)
}
