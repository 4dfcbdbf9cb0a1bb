package domain

import "time"

// PlatformFreshness classifies snapshot recency for one platform.
type PlatformFreshness string

const (
	FreshnessFresh   PlatformFreshness = "fresh"
	FreshnessStale   PlatformFreshness = "stale"
	FreshnessMissing PlatformFreshness = "missing"
)

// HealthStatus is the overall pipeline classification. The three-way split
// lets operators tell "everything is down" (stale) apart from "one
// integration broke" (degraded) without reading per-platform detail.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusStale    HealthStatus = "stale"
)

type PlatformHealth struct {
	Platform     Platform          `json:"platform"`
	Freshness    PlatformFreshness `json:"freshness"`
	LatestAt     *time.Time        `json:"latest_at,omitempty"`
	AgeHours     *float64          `json:"age_hours,omitempty"`
	Snapshots24h int               `json:"snapshots_24h"`
	Handles24h   int               `json:"handles_24h"`
}

// HealthReport is computed on demand from the snapshot store and never
// persisted.
type HealthReport struct {
	Status              HealthStatus     `json:"status"`
	GeneratedAt         time.Time        `json:"generated_at"`
	CadenceHours        int              `json:"cadence_hours"`
	StaleThresholdHours int              `json:"stale_threshold_hours"`
	LatestSnapshotAt    *time.Time       `json:"latest_snapshot_at,omitempty"`
	LatestAgeHours      *float64         `json:"latest_age_hours,omitempty"`
	Snapshots24h        int              `json:"snapshots_24h"`
	Platforms           []PlatformHealth `json:"platforms"`
}
