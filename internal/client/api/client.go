package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/mtreharne/focusbeat/internal/oauth"
	"github.com/mtreharne/focusbeat/internal/profile"
	"github.com/mtreharne/focusbeat/internal/service/metrics"
	"github.com/mtreharne/focusbeat/internal/version"
	"github.com/mtreharne/focusbeat/internal/xhttp"
)

// Client is the timer's view of the focusbeat server API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: xhttp.NewHTTPClient(xhttp.WithTimeout(30 * time.Second)),
	}
}

// Metrics fetches the biofeedback payload for one polling window.
func (c *Client) Metrics(ctx context.Context, userID string, focusStart *time.Time) (*metrics.Response, error) {
	q := make(url.Values)
	q.Set("user_id", userID)
	if focusStart != nil {
		q.Set("focus_start", focusStart.Format(time.RFC3339))
	}

	var result metrics.Response
	if err := c.get(ctx, "/api/metrics", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitTelemetry posts a completed session and returns the updated
// profile.
func (c *Client) SubmitTelemetry(ctx context.Context, t profile.Telemetry) (*profile.Profile, error) {
	body, err := go_json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshaling telemetry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/telemetry", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set(xhttp.ContentType, "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var updated profile.Profile
	if err := go_json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &updated, nil
}

// Connection fetches the debug connection report.
func (c *Client) Connection(ctx context.Context, userID string) (*oauth.Connection, error) {
	q := make(url.Values)
	q.Set("user_id", userID)

	var result oauth.Connection
	if err := c.get(ctx, "/api/debug/connection", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Disconnect revokes the wearable connection.
func (c *Client) Disconnect(ctx context.Context, userID string) error {
	q := make(url.Values)
	q.Set("user_id", userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/connection?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := go_json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set(version.Header, version.Get())
	if c.apiKey != "" {
		req.Header.Set(xhttp.XAPIKey, c.apiKey)
	}
}
