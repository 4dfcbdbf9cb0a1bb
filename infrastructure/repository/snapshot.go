package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
	"github.com/nvezzaro/social-tracker-api/infrastructure/database/postgres"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
)

const (
	snapshotsTable = "account_snapshots"

	// ingestLockKey is the advisory lock that serializes batch inserts
	// system-wide. It is a fixed constant: there is exactly one snapshot
	// table and at most one ingestion run may write at a time.
	ingestLockKey int64 = 7201982

	// DefaultRecentWindow is the trailing window inside which a second
	// snapshot for the same (handle, platform) is considered a near-duplicate
	// and skipped.
	DefaultRecentWindow = 4 * time.Hour

	idLength     = 12
	idCharacters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

type SnapshotRepository interface {
	InsertBatch(ctx context.Context, measurements []domain.Measurement) (*domain.InsertResult, error)
	LatestPerPair() ([]*domain.Snapshot, error)
	LatestWithPriors() ([]*domain.SnapshotWithPriors, error)
	History(handle string, platform domain.Platform, windowDays int) ([]*domain.Snapshot, error)
	AllWithin(windowDays int) ([]*domain.Snapshot, error)
	PlatformActivity() ([]*domain.PlatformActivity, error)
}

// ingestSession is one pinned database session held for the duration of a
// batch insert. Advisory locks are session-scoped, so every call must land
// on the same connection.
type ingestSession interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
	RecentPairs(ctx context.Context, window time.Duration) (map[string]struct{}, error)
	InsertRows(ctx context.Context, measurements []domain.Measurement) (map[string]struct{}, error)
	Discard()
	Close() error
}

type snapshotRepository struct {
	conn         *postgres.Connection
	recentWindow time.Duration
	openSession  func(ctx context.Context) (ingestSession, error)
}

func NewSnapshotRepository(conn *postgres.Connection, recentWindow time.Duration) SnapshotRepository {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}

	r := &snapshotRepository{
		conn:         conn,
		recentWindow: recentWindow,
	}
	r.openSession = r.newIngestSession

	return r
}

func (r *snapshotRepository) newIngestSession(ctx context.Context) (ingestSession, error) {
	conn, err := r.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	return &pgIngestSession{conn: conn}, nil
}

// InsertBatch persists one ingestion run. Candidates are normalized and
// deduplicated in-batch, the table-wide advisory lock is taken (fail-fast:
// a run that loses the lock is skipped wholesale rather than interleaved),
// pairs with a snapshot inside the recent window are skipped, and the rest
// are inserted in a single statement. The result is always complete; store
// failures surface inside it, never as a thrown error.
func (r *snapshotRepository) InsertBatch(ctx context.Context, measurements []domain.Measurement) (*domain.InsertResult, error) {
	result := &domain.InsertResult{Details: make([]domain.InsertDetail, 0, len(measurements))}

	candidates := dedupeByPair(normalizeMeasurements(measurements, result))
	if len(candidates) == 0 {
		return result, nil
	}

	sess, err := r.openSession(ctx)
	if err != nil {
		failAll(result, candidates, err)
		return result, nil
	}
	defer sess.Close()

	locked, err := sess.TryLock(ctx)
	if err != nil {
		failAll(result, candidates, err)
		return result, nil
	}

	if !locked {
		logrus.WithField("lock_key", ingestLockKey).Warn("snapshot ingest lock held by another run, skipping batch")
		result.LockUnavailable = true
		for _, c := range candidates {
			result.Add(c.Handle, c.Platform, domain.InsertOutcomeSkipped, "ingest lock unavailable")
		}
		return result, nil
	}

	// The lock must be released on every exit path. A session that fails to
	// unlock cannot go back to the pool: it would keep the lock alive and
	// block every later run.
	defer func() {
		if err := sess.Unlock(ctx); err != nil {
			logrus.WithError(err).Error("failed to release snapshot ingest lock, discarding session")
			sess.Discard()
		}
	}()

	recent, err := sess.RecentPairs(ctx, r.recentWindow)
	if err != nil {
		failAll(result, candidates, err)
		return result, nil
	}

	insertable := make([]domain.Measurement, 0, len(candidates))
	for _, c := range candidates {
		if _, exists := recent[pairKey(c.Handle, c.Platform)]; exists {
			result.Add(c.Handle, c.Platform, domain.InsertOutcomeSkipped, "recent snapshot exists")
			continue
		}
		insertable = append(insertable, c)
	}

	if len(insertable) == 0 {
		return result, nil
	}

	written, err := sess.InsertRows(ctx, insertable)
	if err != nil {
		failAll(result, insertable, err)
		return result, nil
	}

	recordOutcomes(result, insertable, written)
	return result, nil
}

// recordOutcomes folds the set of actually written pairs back into the
// result. A candidate absent from the written set was silently dropped by
// the (handle, platform, scraped_at) uniqueness invariant.
func recordOutcomes(result *domain.InsertResult, insertable []domain.Measurement, written map[string]struct{}) {
	for _, m := range insertable {
		if _, ok := written[pairKey(m.Handle, m.Platform)]; ok {
			result.Add(m.Handle, m.Platform, domain.InsertOutcomeInserted, "")
			continue
		}
		result.Add(m.Handle, m.Platform, domain.InsertOutcomeSkipped, "conflicting snapshot already stored")
	}
}

// pgIngestSession runs the insert protocol on one pinned pool connection.
type pgIngestSession struct {
	conn *sql.Conn
}

func (s *pgIngestSession) TryLock(ctx context.Context) (bool, error) {
	var locked bool
	err := s.conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", ingestLockKey).Scan(&locked)
	return locked, err
}

// Unlock runs even when the batch context is already canceled; otherwise a
// shutdown mid-batch would pool a live connection that still holds the lock.
func (s *pgIngestSession) Unlock(ctx context.Context) error {
	_, err := s.conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", ingestLockKey)
	return err
}

// Discard marks the underlying connection bad so Close drops it from the
// pool instead of handing a possibly still-locked session to the next run.
func (s *pgIngestSession) Discard() {
	_ = s.conn.Raw(func(driverConn any) error {
		return driver.ErrBadConn
	})
}

func (s *pgIngestSession) Close() error {
	return s.conn.Close()
}

// RecentPairs returns every (handle, platform) that already has a snapshot
// inside the recent window. Checked under the lock so a retry or a
// near-simultaneous trigger cannot double-insert.
func (s *pgIngestSession) RecentPairs(ctx context.Context, window time.Duration) (map[string]struct{}, error) {
	recentSQL, args, err := squirrel.
		Select("DISTINCT handle, platform").
		From(snapshotsTable).
		Where(squirrel.Expr("scraped_at > NOW() - ?::interval", fmt.Sprintf("%d seconds", int(window.Seconds())))).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recent-pairs query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, recentSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent pairs: %w", err)
	}
	defer rows.Close()

	pairs := make(map[string]struct{})
	for rows.Next() {
		var handle string
		var platform domain.Platform
		if err := rows.Scan(&handle, &platform); err != nil {
			return nil, err
		}
		pairs[pairKey(handle, platform)] = struct{}{}
	}

	return pairs, rows.Err()
}

// InsertRows writes the candidates in one set-oriented statement and returns
// the pairs the statement actually wrote. RETURNING tells apart rows written
// from rows dropped by ON CONFLICT.
func (s *pgIngestSession) InsertRows(ctx context.Context, measurements []domain.Measurement) (map[string]struct{}, error) {
	builder := squirrel.StatementBuilder.
		Insert(snapshotsTable).
		Columns("id", "handle", "platform", "marketing_rep", "followers", "likes", "posts", "videos").
		PlaceholderFormat(squirrel.Dollar)

	for _, m := range measurements {
		var rep sql.NullString
		if m.MarketingRep != "" {
			rep = sql.NullString{String: m.MarketingRep, Valid: true}
		}

		builder = builder.Values(
			newSnapshotID(),
			m.Handle,
			m.Platform,
			rep,
			int64(m.Followers),
			int64(m.Likes),
			int64(m.Posts),
			int64(m.Videos),
		)
	}

	builder = builder.Suffix("ON CONFLICT (handle, platform, scraped_at) DO NOTHING RETURNING handle, platform")

	insertSQL, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, insertSQL, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return nil, fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
		}
		return nil, fmt.Errorf("failed to execute insert: %w", err)
	}
	defer rows.Close()

	written := make(map[string]struct{}, len(measurements))
	for rows.Next() {
		var handle string
		var platform domain.Platform
		if err := rows.Scan(&handle, &platform); err != nil {
			return nil, err
		}
		written[pairKey(handle, platform)] = struct{}{}
	}

	return written, rows.Err()
}

func (r *snapshotRepository) LatestPerPair() ([]*domain.Snapshot, error) {
	latestSQL, args, err := squirrel.
		Select("DISTINCT ON (handle, platform) id, handle, platform, marketing_rep, followers, likes, posts, videos, scraped_at").
		From(snapshotsTable).
		OrderBy("handle", "platform", "scraped_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	return r.querySnapshots(latestSQL, args...)
}

// latestWithPriorsSQL resolves, in one pass, the latest snapshot per pair and
// its nearest priors at least 24 hours and 7 days older. The lateral probes
// ride the (handle, platform, scraped_at) index, so cost grows with tracked
// pairs, not history depth.
const latestWithPriorsSQL = `
SELECT cur.id, cur.handle, cur.platform, cur.marketing_rep,
       cur.followers, cur.likes, cur.posts, cur.videos, cur.scraped_at,
       d.followers, d.likes, d.posts, d.videos, d.scraped_at,
       w.followers, w.likes, w.posts, w.videos, w.scraped_at
FROM (
    SELECT DISTINCT ON (handle, platform)
           id, handle, platform, marketing_rep, followers, likes, posts, videos, scraped_at
    FROM account_snapshots
    ORDER BY handle, platform, scraped_at DESC
) cur
LEFT JOIN LATERAL (
    SELECT followers, likes, posts, videos, scraped_at
    FROM account_snapshots p
    WHERE p.handle = cur.handle AND p.platform = cur.platform
      AND p.scraped_at <= cur.scraped_at - INTERVAL '24 hours'
    ORDER BY p.scraped_at DESC
    LIMIT 1
) d ON TRUE
LEFT JOIN LATERAL (
    SELECT followers, likes, posts, videos, scraped_at
    FROM account_snapshots p
    WHERE p.handle = cur.handle AND p.platform = cur.platform
      AND p.scraped_at <= cur.scraped_at - INTERVAL '168 hours'
    ORDER BY p.scraped_at DESC
    LIMIT 1
) w ON TRUE
ORDER BY cur.followers DESC
`

func (r *snapshotRepository) LatestWithPriors() ([]*domain.SnapshotWithPriors, error) {
	rows, err := r.conn.Query(latestWithPriorsSQL)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest snapshots with priors: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.SnapshotWithPriors, 0)
	for rows.Next() {
		item := &domain.SnapshotWithPriors{}

		var dayFollowers, dayLikes, dayPosts, dayVideos sql.NullInt64
		var dayScrapedAt sql.NullTime
		var weekFollowers, weekLikes, weekPosts, weekVideos sql.NullInt64
		var weekScrapedAt sql.NullTime

		if err := rows.Scan(
			&item.Current.ID,
			&item.Current.Handle,
			&item.Current.Platform,
			&item.Current.MarketingRep,
			&item.Current.Followers,
			&item.Current.Likes,
			&item.Current.Posts,
			&item.Current.Videos,
			&item.Current.ScrapedAt,
			&dayFollowers, &dayLikes, &dayPosts, &dayVideos, &dayScrapedAt,
			&weekFollowers, &weekLikes, &weekPosts, &weekVideos, &weekScrapedAt,
		); err != nil {
			return nil, err
		}

		if dayScrapedAt.Valid {
			item.DayAgo = &domain.Snapshot{
				Handle:    item.Current.Handle,
				Platform:  item.Current.Platform,
				Followers: dayFollowers.Int64,
				Likes:     dayLikes.Int64,
				Posts:     dayPosts.Int64,
				Videos:    dayVideos.Int64,
				ScrapedAt: dayScrapedAt.Time,
			}
		}

		if weekScrapedAt.Valid {
			item.WeekAgo = &domain.Snapshot{
				Handle:    item.Current.Handle,
				Platform:  item.Current.Platform,
				Followers: weekFollowers.Int64,
				Likes:     weekLikes.Int64,
				Posts:     weekPosts.Int64,
				Videos:    weekVideos.Int64,
				ScrapedAt: weekScrapedAt.Time,
			}
		}

		results = append(results, item)
	}

	return results, rows.Err()
}

func (r *snapshotRepository) History(handle string, platform domain.Platform, windowDays int) ([]*domain.Snapshot, error) {
	historySQL, args, err := squirrel.
		Select("id, handle, platform, marketing_rep, followers, likes, posts, videos, scraped_at").
		From(snapshotsTable).
		Where(squirrel.Eq{"handle": strings.ToLower(strings.TrimSpace(handle)), "platform": platform}).
		Where(squirrel.Expr("scraped_at > NOW() - ?::interval", fmt.Sprintf("%d days", windowDays))).
		OrderBy("scraped_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	return r.querySnapshots(historySQL, args...)
}

func (r *snapshotRepository) AllWithin(windowDays int) ([]*domain.Snapshot, error) {
	allSQL, args, err := squirrel.
		Select("id, handle, platform, marketing_rep, followers, likes, posts, videos, scraped_at").
		From(snapshotsTable).
		Where(squirrel.Expr("scraped_at > NOW() - ?::interval", fmt.Sprintf("%d days", windowDays))).
		OrderBy("handle", "platform", "scraped_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	return r.querySnapshots(allSQL, args...)
}

func (r *snapshotRepository) PlatformActivity() ([]*domain.PlatformActivity, error) {
	activitySQL, args, err := squirrel.
		Select(
			"platform",
			"MAX(scraped_at) AS latest_at",
			"COUNT(*) FILTER (WHERE scraped_at > NOW() - INTERVAL '24 hours') AS snapshots_24h",
			"COUNT(DISTINCT handle) FILTER (WHERE scraped_at > NOW() - INTERVAL '24 hours') AS handles_24h",
		).
		From(snapshotsTable).
		GroupBy("platform").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(activitySQL, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query platform activity: %w", err)
	}
	defer rows.Close()

	activities := make([]*domain.PlatformActivity, 0)
	for rows.Next() {
		activity := &domain.PlatformActivity{}
		if err := rows.Scan(
			&activity.Platform,
			&activity.LatestAt,
			&activity.Snapshots24h,
			&activity.Handles24h,
		); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}

func (r *snapshotRepository) querySnapshots(query string, args ...interface{}) ([]*domain.Snapshot, error) {
	rows, err := r.conn.Query(query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*domain.Snapshot, 0)
	for rows.Next() {
		snapshot := &domain.Snapshot{}
		if err := rows.Scan(
			&snapshot.ID,
			&snapshot.Handle,
			&snapshot.Platform,
			&snapshot.MarketingRep,
			&snapshot.Followers,
			&snapshot.Likes,
			&snapshot.Posts,
			&snapshot.Videos,
			&snapshot.ScrapedAt,
		); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// normalizeMeasurements trims and lowercases handles, clamps negative
// counters to zero and floors fractional ones. Candidates without a handle or
// with an unknown platform cannot be keyed and are reported as skipped;
// out-of-range values are clamped, never rejected.
func normalizeMeasurements(measurements []domain.Measurement, result *domain.InsertResult) []domain.Measurement {
	normalized := make([]domain.Measurement, 0, len(measurements))

	for _, m := range measurements {
		m.Handle = strings.ToLower(strings.TrimSpace(m.Handle))

		if m.Handle == "" {
			result.Add(m.Handle, m.Platform, domain.InsertOutcomeSkipped, "empty handle")
			continue
		}

		if !m.Platform.Valid() {
			result.Add(m.Handle, m.Platform, domain.InsertOutcomeSkipped, "unknown platform")
			continue
		}

		m.MarketingRep = strings.TrimSpace(m.MarketingRep)
		m.Followers = clampCounter(m.Followers)
		m.Likes = clampCounter(m.Likes)
		m.Posts = clampCounter(m.Posts)
		m.Videos = clampCounter(m.Videos)

		normalized = append(normalized, m)
	}

	return normalized
}

// dedupeByPair keeps one candidate per (handle, platform); the last reading
// in iteration order wins. A guard against upstream double-reads, not the
// primary correctness mechanism.
func dedupeByPair(measurements []domain.Measurement) []domain.Measurement {
	byPair := make(map[string]int, len(measurements))
	deduped := make([]domain.Measurement, 0, len(measurements))

	for _, m := range measurements {
		key := pairKey(m.Handle, m.Platform)
		if idx, exists := byPair[key]; exists {
			deduped[idx] = m
			continue
		}
		byPair[key] = len(deduped)
		deduped = append(deduped, m)
	}

	return deduped
}

func clampCounter(value float64) float64 {
	if value < 0 || math.IsNaN(value) {
		return 0
	}
	return math.Floor(value)
}

func pairKey(handle string, platform domain.Platform) string {
	return fmt.Sprintf("%s:%s", strings.ToLower(strings.TrimSpace(handle)), platform)
}

func failAll(result *domain.InsertResult, candidates []domain.Measurement, err error) {
	logrus.WithError(err).Error("snapshot batch insert failed")
	for _, c := range candidates {
		result.Add(c.Handle, c.Platform, domain.InsertOutcomeFailed, err.Error())
	}
}

func newSnapshotID() string {
	id, _ := gonanoid.Generate(idCharacters, idLength)
	return id
}
