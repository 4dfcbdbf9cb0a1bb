package slack

import (
	"bytes"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/nvezzaro/social-tracker-api/internal/config"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
	"github.com/nvezzaro/social-tracker-api/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Notifier delivers a structured alert to the configured webhook.
// Best-effort: delivery failure is logged and reported as false, never
// raised. Alerting must not block the pipeline it reports on.
type Notifier interface {
	Send(report domain.AlertReport) bool
}

type Client struct {
	webhookURL string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		webhookURL: cfg.Slack.WebhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Send(report domain.AlertReport) bool {
	if c.webhookURL == "" {
		logrus.Debug("no webhook configured, dropping alert")
		return false
	}

	payload := webhookPayload{Text: BuildMessage(report)}

	body, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("failed to encode alert payload")
		return false
	}

	logrus.Debugf("posting alert: %s", utils.PrettyJson(body))

	resp, err := c.httpClient.Post(c.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logrus.WithError(err).Error("failed to deliver alert webhook")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logrus.WithField("status", resp.StatusCode).Error("alert webhook rejected the message")
		return false
	}

	return true
}

type webhookPayload struct {
	Text string `json:"text"`
}
