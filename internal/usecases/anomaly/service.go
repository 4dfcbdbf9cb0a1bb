package anomaly

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/nvezzaro/social-tracker-api/infrastructure/repository"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
	"github.com/nvezzaro/social-tracker-api/pkg/utils"
)

const (
	// likelyErrorThreshold flags a near-total counter loss on any metric;
	// almost always a blocked or empty scrape response.
	likelyErrorThreshold = 90.0

	// suspiciousDropThreshold flags large follower losses only. The other
	// counters are noisier and are not flagged at this level.
	suspiciousDropThreshold = 50.0
)

var metrics = []string{"followers", "likes", "posts", "videos"}

// Detector compares incoming measurements against the most recent stored
// snapshot per (handle, platform) and classifies large drops. Purely local
// and stateless: no cross-account correlation.
type Detector interface {
	Detect(measurements []domain.Measurement) ([]domain.Anomaly, error)
}

type Service struct {
	snapshotRepo repository.SnapshotRepository
}

func NewService(snapshotRepo repository.SnapshotRepository) Detector {
	return &Service{snapshotRepo: snapshotRepo}
}

func (s *Service) Detect(measurements []domain.Measurement) ([]domain.Anomaly, error) {
	if len(measurements) == 0 {
		return nil, nil
	}

	latest, err := s.snapshotRepo.LatestPerPair()
	if err != nil {
		return nil, errors.Wrap(err, "fetching latest snapshots for anomaly check")
	}

	previousByPair := make(map[string]*domain.Snapshot, len(latest))
	for _, snapshot := range latest {
		previousByPair[pairKey(snapshot.Handle, snapshot.Platform)] = snapshot
	}

	findings := make([]domain.Anomaly, 0)
	for _, m := range measurements {
		previous, exists := previousByPair[pairKey(m.Handle, m.Platform)]
		if !exists {
			// First reading for this pair; nothing to compare against.
			continue
		}

		findings = append(findings, inspect(m, previous)...)
	}

	for _, finding := range findings {
		logrus.WithFields(logrus.Fields{
			"handle":       finding.Handle,
			"platform":     finding.Platform,
			"metric":       finding.Metric,
			"previous":     finding.PreviousValue,
			"new":          finding.NewValue,
			"drop_percent": finding.DropPercent,
			"severity":     finding.Severity,
		}).Warn("anomalous drop detected")
	}

	return findings, nil
}

// inspect checks each counter of one measurement independently. Metrics with
// previous <= 0 are skipped (drop-only detection: a first real reading after
// a stuck-at-zero stretch never flags), and growth never flags.
func inspect(m domain.Measurement, previous *domain.Snapshot) []domain.Anomaly {
	findings := make([]domain.Anomaly, 0)

	for _, metric := range metrics {
		previousValue := metricValue(previous, metric)
		newValue := int64(math.Floor(math.Max(m.Counter(metric), 0)))

		if previousValue <= 0 || newValue >= previousValue {
			continue
		}

		dropPercent := utils.RoundWithTwoDecimalPlace(
			float64(previousValue-newValue) / float64(previousValue) * 100,
		)

		var severity domain.AnomalySeverity
		switch {
		case dropPercent >= likelyErrorThreshold:
			severity = domain.SeverityLikelyError
		case metric == "followers" && dropPercent >= suspiciousDropThreshold:
			severity = domain.SeveritySuspiciousDrop
		default:
			continue
		}

		findings = append(findings, domain.Anomaly{
			Handle:        previous.Handle,
			Platform:      previous.Platform,
			Metric:        metric,
			PreviousValue: previousValue,
			NewValue:      newValue,
			DropPercent:   dropPercent,
			Severity:      severity,
		})
	}

	return findings
}

func metricValue(snapshot *domain.Snapshot, metric string) int64 {
	switch metric {
	case "followers":
		return snapshot.Followers
	case "likes":
		return snapshot.Likes
	case "posts":
		return snapshot.Posts
	case "videos":
		return snapshot.Videos
	}
	return 0
}

func pairKey(handle string, platform domain.Platform) string {
	return strings.ToLower(strings.TrimSpace(handle)) + ":" + string(platform)
}
