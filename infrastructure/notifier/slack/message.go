package slack

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nvezzaro/social-tracker-api/internal/domain"
)

// BuildMessage renders an alert report as the webhook text block: summary
// line, per-platform success ratios, failed handles, anomaly findings and a
// timestamp/duration footer.
func BuildMessage(report domain.AlertReport) string {
	var b strings.Builder

	b.WriteString(":rotating_light: *Snapshot tracker alert*\n")
	for _, reason := range report.Reasons {
		b.WriteString(fmt.Sprintf("• %s\n", reason))
	}

	if len(report.PlatformStats) > 0 {
		b.WriteString("\n*Platforms*\n")
		for _, platform := range domain.Platforms {
			stat, exists := report.PlatformStats[platform]
			if !exists {
				continue
			}
			total := stat.Succeeded + stat.Failed
			b.WriteString(fmt.Sprintf("• %s: %d/%d ok\n", platform, stat.Succeeded, total))
		}
	}

	if len(report.FailedHandles) > 0 {
		b.WriteString(fmt.Sprintf("\n*Failed handles*: %s\n", strings.Join(report.FailedHandles, ", ")))
	}

	if len(report.Anomalies) > 0 {
		b.WriteString("\n*Anomalies*\n")
		for _, a := range report.Anomalies {
			b.WriteString(fmt.Sprintf(
				"• %s/%s %s %d → %d (%.1f%% drop, %s)\n",
				a.Handle, a.Platform, a.Metric, a.PreviousValue, a.NewValue, a.DropPercent, a.Severity,
			))
		}
	}

	if len(report.DatabaseCounts) > 0 {
		b.WriteString("\n*Store*\n")
		for _, key := range sortedKeys(report.DatabaseCounts) {
			b.WriteString(fmt.Sprintf("• %s: %d\n", key, report.DatabaseCounts[key]))
		}
	}

	b.WriteString(fmt.Sprintf("\n_%s", report.StartedAt.Format(time.RFC3339)))
	if report.DurationMS > 0 {
		b.WriteString(fmt.Sprintf(" · %dms", report.DurationMS))
	}
	b.WriteString("_")

	return b.String()
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys
}
