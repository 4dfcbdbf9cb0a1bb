package ingesting

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slackmocks "github.com/nvezzaro/social-tracker-api/infrastructure/notifier/slack/mocks"
	repomocks "github.com/nvezzaro/social-tracker-api/infrastructure/repository/mocks"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
	anomalymocks "github.com/nvezzaro/social-tracker-api/internal/usecases/anomaly/mocks"
	"github.com/nvezzaro/social-tracker-api/pkg/log"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	log.SetupTestLogger()
	os.Exit(m.Run())
}

var testMeasurements = []domain.Measurement{
	{Handle: "acme", Platform: domain.PlatformInstagram, Followers: 1100},
	{Handle: "brew.lab", Platform: domain.PlatformYouTube, Followers: 45000},
}

func TestService_Run_CleanRunSendsNoAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repomocks.NewMockSnapshotRepository(ctrl)
	mockDetector := anomalymocks.NewMockDetector(ctrl)
	mockNotifier := slackmocks.NewMockNotifier(ctrl)

	mockDetector.EXPECT().Detect(testMeasurements).Return(nil, nil)
	mockRepo.EXPECT().InsertBatch(gomock.Any(), testMeasurements).Return(&domain.InsertResult{
		Inserted: 2,
		Details: []domain.InsertDetail{
			{Handle: "acme", Platform: domain.PlatformInstagram, Outcome: domain.InsertOutcomeInserted},
			{Handle: "brew.lab", Platform: domain.PlatformYouTube, Outcome: domain.InsertOutcomeInserted},
		},
	}, nil)
	// No Send expectation: a clean run must not alert.

	service := NewService(mockRepo, mockDetector, mockNotifier)

	summary, err := service.Run(context.Background(), testMeasurements)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Result.Inserted)
	assert.False(t, summary.AlertSent)
	assert.Empty(t, summary.Anomalies)
}

func TestService_Run_AnomaliesTriggerAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repomocks.NewMockSnapshotRepository(ctrl)
	mockDetector := anomalymocks.NewMockDetector(ctrl)
	mockNotifier := slackmocks.NewMockNotifier(ctrl)

	findings := []domain.Anomaly{
		{Handle: "acme", Platform: domain.PlatformInstagram, Metric: "followers",
			PreviousValue: 1000, NewValue: 50, DropPercent: 95, Severity: domain.SeverityLikelyError},
	}

	mockDetector.EXPECT().Detect(testMeasurements).Return(findings, nil)
	mockRepo.EXPECT().InsertBatch(gomock.Any(), testMeasurements).Return(&domain.InsertResult{
		Inserted: 2,
		Details: []domain.InsertDetail{
			{Handle: "acme", Platform: domain.PlatformInstagram, Outcome: domain.InsertOutcomeInserted},
			{Handle: "brew.lab", Platform: domain.PlatformYouTube, Outcome: domain.InsertOutcomeInserted},
		},
	}, nil)

	mockNotifier.EXPECT().Send(gomock.Any()).DoAndReturn(func(report domain.AlertReport) bool {
		assert.Equal(t, findings, report.Anomalies)
		require.Len(t, report.Reasons, 1)
		assert.Contains(t, report.Reasons[0], "anomalous drop")
		return true
	})

	service := NewService(mockRepo, mockDetector, mockNotifier)

	summary, err := service.Run(context.Background(), testMeasurements)
	require.NoError(t, err)
	assert.True(t, summary.AlertSent)
	assert.Equal(t, findings, summary.Anomalies)
}

func TestService_Run_LockContentionIsReportedNotRaised(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repomocks.NewMockSnapshotRepository(ctrl)
	mockDetector := anomalymocks.NewMockDetector(ctrl)
	mockNotifier := slackmocks.NewMockNotifier(ctrl)

	mockDetector.EXPECT().Detect(testMeasurements).Return(nil, nil)
	mockRepo.EXPECT().InsertBatch(gomock.Any(), testMeasurements).Return(&domain.InsertResult{
		Skipped:         2,
		LockUnavailable: true,
		Details: []domain.InsertDetail{
			{Handle: "acme", Platform: domain.PlatformInstagram, Outcome: domain.InsertOutcomeSkipped, Reason: "ingest lock unavailable"},
			{Handle: "brew.lab", Platform: domain.PlatformYouTube, Outcome: domain.InsertOutcomeSkipped, Reason: "ingest lock unavailable"},
		},
	}, nil)

	mockNotifier.EXPECT().Send(gomock.Any()).DoAndReturn(func(report domain.AlertReport) bool {
		require.Len(t, report.Reasons, 1)
		assert.Contains(t, report.Reasons[0], "concurrent run")
		return true
	})

	service := NewService(mockRepo, mockDetector, mockNotifier)

	summary, err := service.Run(context.Background(), testMeasurements)
	require.NoError(t, err)
	assert.True(t, summary.Result.LockUnavailable)
	assert.Equal(t, 2, summary.Result.Skipped)
}

func TestService_Run_DetectorFailureStillPersists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repomocks.NewMockSnapshotRepository(ctrl)
	mockDetector := anomalymocks.NewMockDetector(ctrl)
	mockNotifier := slackmocks.NewMockNotifier(ctrl)

	mockDetector.EXPECT().Detect(testMeasurements).Return(nil, errors.New("history unavailable"))
	mockRepo.EXPECT().InsertBatch(gomock.Any(), testMeasurements).Return(&domain.InsertResult{
		Inserted: 2,
		Details: []domain.InsertDetail{
			{Handle: "acme", Platform: domain.PlatformInstagram, Outcome: domain.InsertOutcomeInserted},
			{Handle: "brew.lab", Platform: domain.PlatformYouTube, Outcome: domain.InsertOutcomeInserted},
		},
	}, nil)

	service := NewService(mockRepo, mockDetector, mockNotifier)

	summary, err := service.Run(context.Background(), testMeasurements)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Result.Inserted)
	assert.Empty(t, summary.Anomalies)
}

func TestService_Run_FailedCandidatesAlertWithPlatformStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repomocks.NewMockSnapshotRepository(ctrl)
	mockDetector := anomalymocks.NewMockDetector(ctrl)
	mockNotifier := slackmocks.NewMockNotifier(ctrl)

	mockDetector.EXPECT().Detect(testMeasurements).Return(nil, nil)
	mockRepo.EXPECT().InsertBatch(gomock.Any(), testMeasurements).Return(&domain.InsertResult{
		Inserted: 1,
		Failed:   1,
		Details: []domain.InsertDetail{
			{Handle: "acme", Platform: domain.PlatformInstagram, Outcome: domain.InsertOutcomeInserted},
			{Handle: "brew.lab", Platform: domain.PlatformYouTube, Outcome: domain.InsertOutcomeFailed, Reason: "connection reset"},
		},
	}, nil)

	mockNotifier.EXPECT().Send(gomock.Any()).DoAndReturn(func(report domain.AlertReport) bool {
		assert.Equal(t, []string{"brew.lab"}, report.FailedHandles)
		assert.Equal(t, domain.PlatformStat{Succeeded: 1}, report.PlatformStats[domain.PlatformInstagram])
		assert.Equal(t, domain.PlatformStat{Failed: 1}, report.PlatformStats[domain.PlatformYouTube])
		return false
	})

	service := NewService(mockRepo, mockDetector, mockNotifier)

	summary, err := service.Run(context.Background(), testMeasurements)
	require.NoError(t, err)
	assert.False(t, summary.AlertSent)
	assert.Equal(t, 1, summary.Result.Failed)
}
