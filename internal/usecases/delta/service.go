package delta

import (
	"time"

	"github.com/pkg/errors"
	"github.com/nvezzaro/social-tracker-api/infrastructure/repository"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
	"github.com/nvezzaro/social-tracker-api/pkg/utils"
)

const (
	dayThreshold  = 24 * time.Hour
	weekThreshold = 7 * 24 * time.Hour

	// weekLookbackDays widens history fetches so rows near the window edge
	// still find their 7-day prior.
	weekLookbackDays = 7
)

// Engine derives day and week deltas from irregularly spaced snapshots.
type Engine interface {
	// ComputeWithDeltas returns the latest snapshot of every
	// (handle, platform) pair annotated with 1-day and 7-day deltas.
	ComputeWithDeltas() ([]*domain.SnapshotDelta, error)

	// ComputeHistoryWithDeltas annotates every snapshot of the trailing
	// window the same way.
	ComputeHistoryWithDeltas(windowDays int) ([]*domain.SnapshotDelta, error)

	// ComputeRangeGrowth summarizes follower growth over an explicit,
	// pre-filtered history window supplied by the caller.
	ComputeRangeGrowth(history []*domain.Snapshot, currentValue int64) domain.RangeGrowth
}

type Service struct {
	snapshotRepo repository.SnapshotRepository
}

func NewService(snapshotRepo repository.SnapshotRepository) Engine {
	return &Service{snapshotRepo: snapshotRepo}
}

func (s *Service) ComputeWithDeltas() ([]*domain.SnapshotDelta, error) {
	rows, err := s.snapshotRepo.LatestWithPriors()
	if err != nil {
		return nil, errors.Wrap(err, "fetching latest snapshots with priors")
	}

	projections := make([]*domain.SnapshotDelta, 0, len(rows))
	for _, row := range rows {
		projections = append(projections, buildProjection(row.Current, row.DayAgo, row.WeekAgo))
	}

	return projections, nil
}

func (s *Service) ComputeHistoryWithDeltas(windowDays int) ([]*domain.SnapshotDelta, error) {
	snapshots, err := s.snapshotRepo.AllWithin(windowDays + weekLookbackDays)
	if err != nil {
		return nil, errors.Wrap(err, "fetching windowed snapshot history")
	}

	cutoff := time.Now().AddDate(0, 0, -windowDays)
	projections := make([]*domain.SnapshotDelta, 0, len(snapshots))

	for _, group := range groupByPair(snapshots) {
		projections = append(projections, annotateGroup(group, cutoff)...)
	}

	return projections, nil
}

func (s *Service) ComputeRangeGrowth(history []*domain.Snapshot, currentValue int64) domain.RangeGrowth {
	if len(history) == 0 {
		return domain.RangeGrowth{BaselineValue: currentValue}
	}

	earliest := history[0]
	for _, snapshot := range history[1:] {
		if snapshot.ScrapedAt.Before(earliest.ScrapedAt) {
			earliest = snapshot
		}
	}

	growth := currentValue - earliest.Followers

	// A zero baseline yields a zero percent rather than a divide-by-zero;
	// known edge case, not an error.
	var growthPercent float64
	if earliest.Followers != 0 {
		growthPercent = utils.RoundWithTwoDecimalPlace(float64(growth) / float64(earliest.Followers) * 100)
	}

	return domain.RangeGrowth{
		Growth:        growth,
		GrowthPercent: growthPercent,
		BaselineValue: earliest.Followers,
	}
}

// annotateGroup walks one pair's history (newest first) and resolves, for
// every snapshot inside the window, the nearest prior at least 24 hours and 7
// days older. Both lookback cursors only ever move forward, so the whole
// group is annotated in a single pass.
func annotateGroup(group []*domain.Snapshot, cutoff time.Time) []*domain.SnapshotDelta {
	projections := make([]*domain.SnapshotDelta, 0, len(group))
	dayIdx, weekIdx := 0, 0

	for i, current := range group {
		if current.ScrapedAt.Before(cutoff) {
			break
		}

		dayIdx = advance(group, max(dayIdx, i+1), current.ScrapedAt.Add(-dayThreshold))
		weekIdx = advance(group, max(weekIdx, i+1), current.ScrapedAt.Add(-weekThreshold))

		var dayAgo, weekAgo *domain.Snapshot
		if dayIdx < len(group) {
			dayAgo = group[dayIdx]
		}
		if weekIdx < len(group) {
			weekAgo = group[weekIdx]
		}

		projections = append(projections, buildProjection(*current, dayAgo, weekAgo))
	}

	return projections
}

// advance returns the first index at or after from whose snapshot is no newer
// than the qualifying timestamp.
func advance(group []*domain.Snapshot, from int, qualifying time.Time) int {
	idx := from
	for idx < len(group) && group[idx].ScrapedAt.After(qualifying) {
		idx++
	}
	return idx
}

func buildProjection(current domain.Snapshot, dayAgo, weekAgo *domain.Snapshot) *domain.SnapshotDelta {
	projection := &domain.SnapshotDelta{Snapshot: current}

	if dayAgo != nil {
		projection.FollowersDelta1d = int64Ptr(current.Followers - dayAgo.Followers)
		projection.LikesDelta1d = int64Ptr(current.Likes - dayAgo.Likes)
		projection.PostsDelta1d = int64Ptr(current.Posts - dayAgo.Posts)
		projection.VideosDelta1d = int64Ptr(current.Videos - dayAgo.Videos)
	}

	if weekAgo != nil {
		projection.FollowersDelta7d = int64Ptr(current.Followers - weekAgo.Followers)
		projection.LikesDelta7d = int64Ptr(current.Likes - weekAgo.Likes)
		projection.PostsDelta7d = int64Ptr(current.Posts - weekAgo.Posts)
		projection.VideosDelta7d = int64Ptr(current.Videos - weekAgo.Videos)
	}

	return projection
}

// groupByPair splits snapshots into per-pair groups. Input is already
// ordered by handle, platform, scraped_at desc, so groups are contiguous.
func groupByPair(snapshots []*domain.Snapshot) [][]*domain.Snapshot {
	groups := make([][]*domain.Snapshot, 0)

	var current []*domain.Snapshot
	for _, snapshot := range snapshots {
		if len(current) > 0 &&
			(current[0].Handle != snapshot.Handle || current[0].Platform != snapshot.Platform) {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, snapshot)
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups
}

func int64Ptr(v int64) *int64 {
	return &v
}
