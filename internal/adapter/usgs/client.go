// Package usgs fetches earthquake summary feeds from the USGS Earthquake
// Hazards Program.
package usgs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultFeedURL is the significant-earthquakes, past-month summary feed.
const DefaultFeedURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/significant_month.geojson"

// maxBodyBytes bounds the feed document size. The monthly "all" feed is
// roughly 10 MB; significant_month is far smaller.
const maxBodyBytes = 32 << 20

// StatusError is returned when the feed responds with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("usgs feed error: status %d: %s", e.StatusCode, e.Body)
}

// Client fetches a single feed URL.
type Client struct {
	feedURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a feed client with a per-request timeout.
func NewClient(feedURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "quake-map-service/1.0",
		logger:    logger,
	}
}

// URL returns the feed URL this client fetches.
func (c *Client) URL() string {
	return c.feedURL
}

// Fetch downloads the feed document and returns the raw GeoJSON body.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("feed body exceeds %d bytes", maxBodyBytes)
	}

	c.logger.Debug("feed fetched", "url", c.feedURL, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}
