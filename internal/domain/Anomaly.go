package domain

// AnomalySeverity classifies how likely a drop is to be a scraping fault
// rather than a real change.
type AnomalySeverity string

const (
	// SeverityLikelyError marks a near-total counter loss, almost always a
	// blocked or empty scrape response.
	SeverityLikelyError AnomalySeverity = "likely_error"
	// SeveritySuspiciousDrop marks a large but plausible follower loss worth
	// a human look.
	SeveritySuspiciousDrop AnomalySeverity = "suspicious_drop"
)

// Anomaly is an ephemeral finding produced during ingestion. It is consumed
// by the alert dispatcher and by logging, never persisted here.
type Anomaly struct {
	Handle        string          `json:"handle"`
	Platform      Platform        `json:"platform"`
	Metric        string          `json:"metric"`
	PreviousValue int64           `json:"previous_value"`
	NewValue      int64           `json:"new_value"`
	DropPercent   float64         `json:"drop_percent"`
	Severity      AnomalySeverity `json:"severity"`
}
