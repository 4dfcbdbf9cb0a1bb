package delta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/nvezzaro/social-tracker-api/infrastructure/repository/mocks"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
	"go.uber.org/mock/gomock"
)

func TestService_ComputeWithDeltas(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Now()

	mockRepo := mocks.NewMockSnapshotRepository(ctrl)
	mockRepo.EXPECT().LatestWithPriors().Return([]*domain.SnapshotWithPriors{
		{
			Current: domain.Snapshot{
				Handle: "acme", Platform: domain.PlatformInstagram,
				Followers: 1100, Likes: 5100, Posts: 205, Videos: 42,
				ScrapedAt: now,
			},
			DayAgo: &domain.Snapshot{
				Followers: 1000, Likes: 5000, Posts: 200, Videos: 40,
				ScrapedAt: now.Add(-25 * time.Hour),
			},
			WeekAgo: &domain.Snapshot{
				Followers: 900, Likes: 4500, Posts: 190, Videos: 35,
				ScrapedAt: now.Add(-8 * 24 * time.Hour),
			},
		},
		{
			// Account too new: no qualifying priors at all.
			Current: domain.Snapshot{
				Handle: "newcomer", Platform: domain.PlatformTikTok,
				Followers: 50, ScrapedAt: now,
			},
		},
	}, nil)

	service := NewService(mockRepo)

	projections, err := service.ComputeWithDeltas()
	require.NoError(t, err)
	require.Len(t, projections, 2)

	acme := projections[0]
	require.NotNil(t, acme.FollowersDelta1d)
	assert.Equal(t, int64(100), *acme.FollowersDelta1d)
	require.NotNil(t, acme.LikesDelta1d)
	assert.Equal(t, int64(100), *acme.LikesDelta1d)
	require.NotNil(t, acme.PostsDelta1d)
	assert.Equal(t, int64(5), *acme.PostsDelta1d)
	require.NotNil(t, acme.VideosDelta1d)
	assert.Equal(t, int64(2), *acme.VideosDelta1d)
	require.NotNil(t, acme.FollowersDelta7d)
	assert.Equal(t, int64(200), *acme.FollowersDelta7d)
	require.NotNil(t, acme.PostsDelta7d)
	assert.Equal(t, int64(15), *acme.PostsDelta7d)

	// Absent deltas stay nil; zero would be indistinguishable from no change.
	newcomer := projections[1]
	assert.Nil(t, newcomer.FollowersDelta1d)
	assert.Nil(t, newcomer.FollowersDelta7d)
	assert.Nil(t, newcomer.PostsDelta7d)
}

func TestService_ComputeWithDeltas_DayPriorOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Now()

	mockRepo := mocks.NewMockSnapshotRepository(ctrl)
	mockRepo.EXPECT().LatestWithPriors().Return([]*domain.SnapshotWithPriors{
		{
			Current: domain.Snapshot{
				Handle: "acme", Platform: domain.PlatformInstagram,
				Followers: 980, ScrapedAt: now,
			},
			DayAgo: &domain.Snapshot{Followers: 1000, ScrapedAt: now.Add(-30 * time.Hour)},
		},
	}, nil)

	service := NewService(mockRepo)

	projections, err := service.ComputeWithDeltas()
	require.NoError(t, err)
	require.Len(t, projections, 1)

	require.NotNil(t, projections[0].FollowersDelta1d)
	assert.Equal(t, int64(-20), *projections[0].FollowersDelta1d)
	assert.Nil(t, projections[0].FollowersDelta7d)
}

func TestService_ComputeHistoryWithDeltas(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Now()

	// Snapshot A at T0, snapshot B 25 hours later: B's 1-day delta is +100,
	// A has no qualifying prior so its delta is absent.
	snapshotA := &domain.Snapshot{
		Handle: "acme", Platform: domain.PlatformInstagram,
		Followers: 1000, ScrapedAt: now.Add(-26 * time.Hour),
	}
	snapshotB := &domain.Snapshot{
		Handle: "acme", Platform: domain.PlatformInstagram,
		Followers: 1100, ScrapedAt: now.Add(-1 * time.Hour),
	}

	mockRepo := mocks.NewMockSnapshotRepository(ctrl)
	mockRepo.EXPECT().AllWithin(30+weekLookbackDays).Return([]*domain.Snapshot{snapshotB, snapshotA}, nil)

	service := NewService(mockRepo)

	projections, err := service.ComputeHistoryWithDeltas(30)
	require.NoError(t, err)
	require.Len(t, projections, 2)

	require.NotNil(t, projections[0].FollowersDelta1d)
	assert.Equal(t, int64(100), *projections[0].FollowersDelta1d)
	assert.Nil(t, projections[0].FollowersDelta7d)

	assert.Nil(t, projections[1].FollowersDelta1d)
}

func TestService_ComputeHistoryWithDeltas_GroupsPairsIndependently(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Now()

	mockRepo := mocks.NewMockSnapshotRepository(ctrl)
	mockRepo.EXPECT().AllWithin(7+weekLookbackDays).Return([]*domain.Snapshot{
		{Handle: "acme", Platform: domain.PlatformInstagram, Followers: 1100, ScrapedAt: now.Add(-1 * time.Hour)},
		{Handle: "acme", Platform: domain.PlatformInstagram, Followers: 1000, ScrapedAt: now.Add(-26 * time.Hour)},
		// Same handle, different platform: must not borrow instagram history.
		{Handle: "acme", Platform: domain.PlatformTikTok, Followers: 500, ScrapedAt: now.Add(-2 * time.Hour)},
	}, nil)

	service := NewService(mockRepo)

	projections, err := service.ComputeHistoryWithDeltas(7)
	require.NoError(t, err)
	require.Len(t, projections, 3)

	byPlatform := make(map[domain.Platform]*domain.SnapshotDelta)
	for _, p := range projections {
		if _, seen := byPlatform[p.Platform]; !seen {
			byPlatform[p.Platform] = p
		}
	}

	require.NotNil(t, byPlatform[domain.PlatformInstagram].FollowersDelta1d)
	assert.Equal(t, int64(100), *byPlatform[domain.PlatformInstagram].FollowersDelta1d)
	assert.Nil(t, byPlatform[domain.PlatformTikTok].FollowersDelta1d)
}

func TestService_ComputeRangeGrowth(t *testing.T) {
	now := time.Now()
	service := &Service{}

	tests := []struct {
		name         string
		history      []*domain.Snapshot
		currentValue int64
		expected     domain.RangeGrowth
	}{
		{
			name: "growth against the earliest value in the window",
			history: []*domain.Snapshot{
				{Followers: 1050, ScrapedAt: now.Add(-10 * 24 * time.Hour)},
				{Followers: 1000, ScrapedAt: now.Add(-30 * 24 * time.Hour)},
			},
			currentValue: 1200,
			expected:     domain.RangeGrowth{Growth: 200, GrowthPercent: 20.0, BaselineValue: 1000},
		},
		{
			name: "zero baseline yields zero percent, not a division error",
			history: []*domain.Snapshot{
				{Followers: 0, ScrapedAt: now.Add(-30 * 24 * time.Hour)},
			},
			currentValue: 300,
			expected:     domain.RangeGrowth{Growth: 300, GrowthPercent: 0, BaselineValue: 0},
		},
		{
			name:         "empty history",
			history:      nil,
			currentValue: 500,
			expected:     domain.RangeGrowth{BaselineValue: 500},
		},
		{
			name: "negative growth",
			history: []*domain.Snapshot{
				{Followers: 1000, ScrapedAt: now.Add(-7 * 24 * time.Hour)},
			},
			currentValue: 900,
			expected:     domain.RangeGrowth{Growth: -100, GrowthPercent: -10.0, BaselineValue: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, service.ComputeRangeGrowth(tt.history, tt.currentValue))
		})
	}
}
