package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/nvezzaro/social-tracker-api/internal/config"
	"github.com/nvezzaro/social-tracker-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client fetches one batch of already-parsed measurements from the scraping
// collaborator's feed endpoint. It does no normalization or validation; the
// snapshot store owns that.
type Client struct {
	cfg        config.Feed
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg.Feed,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Feed.TimeoutSeconds) * time.Second},
	}
}

func (c *Client) Collect(ctx context.Context) ([]domain.Measurement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch measurement feed: %w", err)
	}
	defer resp.Body.Close()

	body, err := c.handleResponse(resp)
	if err != nil {
		return nil, err
	}

	var measurements []domain.Measurement
	if err := json.Unmarshal(body, &measurements); err != nil {
		return nil, fmt.Errorf("failed to decode measurement feed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"measurements": len(measurements),
		"feed_url":     c.cfg.URL,
	}).Info("measurement feed collected")

	return measurements, nil
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
