package slack

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
)

func testReport() domain.AlertReport {
	return domain.AlertReport{
		Reasons: []string{"2 anomalous drop(s) detected"},
		PlatformStats: map[domain.Platform]domain.PlatformStat{
			domain.PlatformInstagram: {Succeeded: 12, Failed: 1},
		},
		FailedHandles: []string{"brew.lab"},
		Anomalies: []domain.Anomaly{
			{Handle: "acme", Platform: domain.PlatformInstagram, Metric: "followers",
				PreviousValue: 1000, NewValue: 50, DropPercent: 95, Severity: domain.SeverityLikelyError},
		},
		StartedAt:  time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		DurationMS: 840,
	}
}

func TestClient_Send_Delivered(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &Client{webhookURL: server.URL, httpClient: server.Client()}

	delivered := client.Send(testReport())
	require.True(t, delivered)
	assert.Contains(t, string(received), "acme")
	assert.Contains(t, string(received), "likely_error")
}

func TestClient_Send_RejectedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := &Client{webhookURL: server.URL, httpClient: server.Client()}

	assert.False(t, client.Send(testReport()))
}

func TestClient_Send_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := &Client{webhookURL: server.URL, httpClient: &http.Client{Timeout: time.Second}}

	assert.False(t, client.Send(testReport()))
}

func TestClient_Send_NoWebhookConfigured(t *testing.T) {
	client := &Client{httpClient: &http.Client{}}

	assert.False(t, client.Send(testReport()))
}

func TestBuildMessage(t *testing.T) {
	message := BuildMessage(testReport())

	assert.Contains(t, message, "Snapshot tracker alert")
	assert.Contains(t, message, "2 anomalous drop(s) detected")
	assert.Contains(t, message, "instagram: 12/13 ok")
	assert.Contains(t, message, "*Failed handles*: brew.lab")
	assert.Contains(t, message, "acme/instagram followers 1000 → 50 (95.0% drop, likely_error)")
	assert.Contains(t, message, "840ms")
}

func TestBuildMessage_HealthOnlyReport(t *testing.T) {
	message := BuildMessage(domain.AlertReport{
		Reasons:        []string{"snapshot pipeline is degraded", "tiktok is stale"},
		DatabaseCounts: map[string]int{"snapshots_24h": 42},
		StartedAt:      time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, message, "snapshot pipeline is degraded")
	assert.Contains(t, message, "tiktok is stale")
	assert.Contains(t, message, "snapshots_24h: 42")
	assert.NotContains(t, message, "*Failed handles*")
	assert.NotContains(t, message, "*Anomalies*")
}
