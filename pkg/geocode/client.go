// Package geocode wraps the Google Geocoding API and the place result shape
// shared with the Places autocomplete widget.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the Google Maps API base URL.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

var (
	ErrNoResults     = errors.New("no address found for this location")
	ErrNotConfigured = errors.New("geocoding API key is not configured")
)

// Config holds geocoding configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client performs reverse geocoding lookups.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	debug      bool
}

// NewClient creates a geocoding client.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		apiKey:     cfg.APIKey,
		debug:      os.Getenv("ENV") == "development",
	}
}

type reverseResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Results      []Place `json:"results"`
}

// Reverse returns the best place for a coordinate.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("key", c.apiKey)
	endpoint := c.baseURL + "/geocode/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Float64("lat", lat).
			Float64("lng", lng).
			Int("status_code", resp.StatusCode).
			Msg("[GEOCODE] Reverse lookup")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: status %d", resp.StatusCode)
	}

	var out reverseResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	switch out.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		return nil, fmt.Errorf("geocode: %s %s", out.Status, out.ErrorMessage)
	}
	if len(out.Results) == 0 {
		return nil, ErrNoResults
	}
	return &out.Results[0], nil
}
