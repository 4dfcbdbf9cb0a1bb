package domain

import "time"

// PlatformStat counts candidate outcomes per platform for one ingestion run.
type PlatformStat struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// AlertReport is the structured payload the dispatcher formats into a
// webhook message.
type AlertReport struct {
	Reasons        []string                  `json:"reasons"`
	PlatformStats  map[Platform]PlatformStat `json:"platform_stats,omitempty"`
	FailedHandles  []string                  `json:"failed_handles,omitempty"`
	DatabaseCounts map[string]int            `json:"database_counts,omitempty"`
	Anomalies      []Anomaly                 `json:"anomalies,omitempty"`
	StartedAt      time.Time                 `json:"started_at"`
	DurationMS     int64                     `json:"duration_ms,omitempty"`
}

// RunSummary is what the ingestion orchestrator returns to its caller.
type RunSummary struct {
	Result    *InsertResult `json:"result"`
	Anomalies []Anomaly     `json:"anomalies,omitempty"`
	AlertSent bool          `json:"alert_sent"`
	Duration  time.Duration `json:"duration"`
}
