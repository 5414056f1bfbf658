package oura

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/mtreharne/focusbeat/internal/xhttp"
	"golang.org/x/oauth2"
)

type Client struct {
	HeartRate   HeartRateService
	DailyStress DailyStressService
	Personal    PersonalService

	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(tokenSource oauth2.TokenSource, opts ...Option) *Client {
	const baseURL = "https://api.ouraring.com"

	cfg := &clientConfig{
		baseURL:     baseURL,
		tokenSource: tokenSource,
		logger:      slog.Default(),
		timeout:     15 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := &ouraTransport{
		base:        xhttp.NewTransport(),
		tokenSource: cfg.tokenSource,
	}

	c := &Client{
		baseURL:    cfg.baseURL,
		httpClient: &http.Client{Transport: transport, Timeout: cfg.timeout},
		logger:     cfg.logger,
	}

	c.HeartRate = &heartRateService{client: c}
	c.DailyStress = &dailyStressService{client: c}
	c.Personal = &personalService{client: c}

	return c
}

type clientConfig struct {
	baseURL     string
	tokenSource oauth2.TokenSource
	logger      *slog.Logger
	timeout     time.Duration
}

type Option func(*clientConfig)

func WithBaseURL(baseURL string) Option {
	return func(cfg *clientConfig) { cfg.baseURL = baseURL }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) { cfg.logger = logger }
}

func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

// rateLimitHeadroom is the remaining-request count below which the
// client starts logging, ahead of actually being throttled.
const rateLimitHeadroom = 100

func (c *Client) do(ctx context.Context, method string, path string, query url.Values, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusTooManyRequests {
			if info, perr := ParseRateLimitHeaders(resp.Header); perr == nil && info != nil {
				c.logger.WarnContext(ctx, "vendor rate limit exhausted",
					slog.Int("limit", info.Limit),
					slog.Duration("reset", info.Reset))
			}
		}
		return parseAPIError(resp)
	}

	if info, perr := ParseRateLimitHeaders(resp.Header); perr == nil && info != nil && info.Remaining < rateLimitHeadroom {
		c.logger.DebugContext(ctx, "vendor rate limit headroom low",
			slog.Int("remaining", info.Remaining),
			slog.Duration("reset", info.Reset))
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if err := go_json.NewDecoder(bytes.NewReader(body)).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w\nbody: %s", err, string(body))
		}
	}

	return nil
}

type ouraTransport struct {
	base        http.RoundTripper
	tokenSource oauth2.TokenSource
}

var _ http.RoundTripper = (*ouraTransport)(nil)

func (t *ouraTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("round trip: %w", err)
	}
	return resp, nil
}
