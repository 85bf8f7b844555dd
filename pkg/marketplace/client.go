package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every marketplace call.
const DefaultTimeout = 10 * time.Second

// Config holds marketplace API configuration.
type Config struct {
	BaseURL string

	// ServiceToken is used when the request context carries no admin token.
	ServiceToken string

	Timeout time.Duration
}

// Client is the marketplace REST client used by the admin console.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	serviceToken string
	debug        bool
}

// NewClient creates a marketplace client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		serviceToken: cfg.ServiceToken,
		debug:        os.Getenv("ENV") == "development",
	}
}

type tokenKey struct{}

// WithToken attaches an admin bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token stored by WithToken.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func (c *Client) bearer(ctx context.Context) string {
	if token := TokenFrom(ctx); token != "" {
		return token
	}
	return c.serviceToken
}

// envelope is the marketplace response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Error   any             `json:"error,omitempty"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is a failed marketplace call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("marketplace: status %d", e.StatusCode)
	}
	return fmt.Sprintf("marketplace: status %d: %s", e.StatusCode, e.Message)
}

// MessageOr returns the server-provided message carried by err, or fallback
// when there is none.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// doJSON sends body as JSON (nil sends no body) and decodes the envelope data into result.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, result any) error {
	var reader io.Reader
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if c.debug {
		ev := log.Debug().Str("method", method).Str("endpoint", endpoint)
		if payload != nil {
			ev = ev.RawJSON("request", payload)
		}
		ev.Msg("[MARKETPLACE] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// doMultipart posts a pre-encoded multipart body.
func (c *Client) doMultipart(ctx context.Context, path string, body []byte, contentType string, result any) error {
	endpoint := c.baseURL + path

	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("bytes", len(body)).
			Msg("[MARKETPLACE] Outgoing multipart request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	req.Header.Set("Accept", "application/json")
	if token := c.bearer(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", req.URL.Path).
			Int("status_code", resp.StatusCode).
			Int("bytes", len(respBody)).
			Msg("[MARKETPLACE] Incoming response")
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if result == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
