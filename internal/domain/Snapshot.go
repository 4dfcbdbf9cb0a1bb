package domain

import "time"

// Platform identifies the social network a measurement was scraped from.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
	PlatformTwitter   Platform = "twitter"
)

// Platforms lists every platform the tracker knows about, in report order.
var Platforms = []Platform{
	PlatformInstagram,
	PlatformTikTok,
	PlatformYouTube,
	PlatformTwitter,
}

func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// Measurement is one raw reading delivered by the scraping collaborator.
// Counters arrive as floats because upstream feeds are not trusted to send
// clean integers; they are floored and clamped before persistence.
type Measurement struct {
	Handle       string   `json:"handle"`
	Platform     Platform `json:"platform"`
	MarketingRep string   `json:"marketing_rep,omitempty"`
	Followers    float64  `json:"followers"`
	Likes        float64  `json:"likes,omitempty"`
	Posts        float64  `json:"posts,omitempty"`
	Videos       float64  `json:"videos,omitempty"`
}

// Counter returns the raw value of one named counter.
func (m Measurement) Counter(name string) float64 {
	switch name {
	case "followers":
		return m.Followers
	case "likes":
		return m.Likes
	case "posts":
		return m.Posts
	case "videos":
		return m.Videos
	}
	return 0
}

// Snapshot is one immutable, timestamped measurement as stored. Rows are
// never updated or deleted by the tracker; (handle, platform, scraped_at)
// is unique.
type Snapshot struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	Platform     Platform  `json:"platform"`
	MarketingRep *string   `json:"marketing_rep,omitempty"`
	Followers    int64     `json:"followers"`
	Likes        int64     `json:"likes"`
	Posts        int64     `json:"posts"`
	Videos       int64     `json:"videos"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// SnapshotWithPriors pairs the latest snapshot of a (handle, platform) with
// the most recent snapshots at least 24 hours and 7 days older, when they
// exist.
type SnapshotWithPriors struct {
	Current Snapshot
	DayAgo  *Snapshot
	WeekAgo *Snapshot
}

// PlatformActivity aggregates snapshot recency for one platform.
type PlatformActivity struct {
	Platform     Platform
	LatestAt     time.Time
	Snapshots24h int
	Handles24h   int
}

// InsertOutcome labels what happened to one candidate measurement during a
// batch insert.
type InsertOutcome string

const (
	InsertOutcomeInserted InsertOutcome = "inserted"
	InsertOutcomeSkipped  InsertOutcome = "skipped"
	InsertOutcomeFailed   InsertOutcome = "failed"
)

type InsertDetail struct {
	Handle   string        `json:"handle"`
	Platform Platform      `json:"platform"`
	Outcome  InsertOutcome `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
}

// InsertResult reports the fate of every candidate in a batch. Contention and
// duplicates are counted outcomes, not errors; the caller always receives the
// full result.
type InsertResult struct {
	Inserted        int            `json:"inserted"`
	Skipped         int            `json:"skipped"`
	Failed          int            `json:"failed"`
	LockUnavailable bool           `json:"lockUnavailable"`
	Details         []InsertDetail `json:"details"`
}

func (r *InsertResult) Add(handle string, platform Platform, outcome InsertOutcome, reason string) {
	switch outcome {
	case InsertOutcomeInserted:
		r.Inserted++
	case InsertOutcomeSkipped:
		r.Skipped++
	case InsertOutcomeFailed:
		r.Failed++
	}

	r.Details = append(r.Details, InsertDetail{
		Handle:   handle,
		Platform: platform,
		Outcome:  outcome,
		Reason:   reason,
	})
}

// FailedHandles returns the handles of every failed candidate, for alerting.
func (r *InsertResult) FailedHandles() []string {
	handles := make([]string, 0)
	for _, detail := range r.Details {
		if detail.Outcome == InsertOutcomeFailed {
			handles = append(handles, detail.Handle)
		}
	}
	return handles
}
