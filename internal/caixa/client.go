// Package caixa fetches and parses Lotofácil drawing results published by
// Caixa Econômica Federal.
package caixa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/logger"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"lotofacil/internal/metrics"
	"lotofacil/internal/models"
)

// Latest requests the most recent drawing.
const Latest = 0

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "Mozilla/5.0"
	maxBodyBytes     = 4 << 20
)

// DefaultBaseURLs are the public result services, in order of preference.
var DefaultBaseURLs = []string{
	"https://servicebus2.caixa.gov.br/portaldeloterias/api/lotofacil",
	"https://www.caixa.gov.br/loterias/_cache/webapi/lotofacil",
}

// Source provides raw drawing payloads.
type Source interface {
	Fetch(ctx context.Context, drawingID int) (models.RawResult, error)
}

// Endpoint resolves drawing URLs on one result server.
type Endpoint struct {
	Name string
	URL  func(drawingID int) string
}

// BaseURL returns an endpoint serving the latest drawing at base and a
// specific drawing at base/{id}.
func BaseURL(base string) Endpoint {
	base = strings.TrimRight(base, "/")
	name := base
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		name = u.Host
	}
	return Endpoint{
		Name: name,
		URL: func(drawingID int) string {
			if drawingID == Latest {
				return base
			}
			return fmt.Sprintf("%s/%d", base, drawingID)
		},
	}
}

// ClientConfig configures the result client.
type ClientConfig struct {
	Endpoints     []Endpoint
	Timeout       time.Duration
	UserAgent     string
	RatePerSecond float64 // <= 0 disables throttling
	Burst         int
	HTTPClient    *http.Client
}

// Client fetches drawings, falling back through its endpoints in order.
type Client struct {
	httpClient *http.Client
	endpoints  []Endpoint
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient creates a Client. Missing settings fall back to the public
// Caixa endpoints, a 20 second timeout and a browser user agent.
func NewClient(cfg ClientConfig) *Client {
	endpoints := cfg.Endpoints
	if len(endpoints) == 0 {
		for _, base := range DefaultBaseURLs {
			endpoints = append(endpoints, BaseURL(base))
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Client{
		httpClient: httpClient,
		endpoints:  endpoints,
		userAgent:  userAgent,
		limiter:    limiter,
	}
}

// Fetch returns the payload of drawingID, or of the latest drawing when
// drawingID is Latest. The first endpoint answering with a JSON body that
// carries drawn numbers wins; otherwise a *FetchError wraps the last failure.
func (c *Client) Fetch(ctx context.Context, drawingID int) (models.RawResult, error) {
	if drawingID < 0 {
		return nil, &FetchError{DrawingID: drawingID, Err: fmt.Errorf("invalid drawing id %d", drawingID)}
	}

	lastErr := errors.New("no endpoints configured")
	attempts := 0
	for _, ep := range c.endpoints {
		attempts++
		body, err := c.fetchFrom(ctx, ep, drawingID)
		if err == nil {
			metrics.RecordFetch(ep.Name, "ok")
			return body, nil
		}

		metrics.RecordFetch(ep.Name, "error")
		logger.Warningf("Fetching drawing %d from %s failed: %v", drawingID, ep.Name, err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &FetchError{DrawingID: drawingID, Attempts: attempts, Err: lastErr}
}

func (c *Client) fetchFrom(ctx context.Context, ep Endpoint, drawingID int) (models.RawResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	target := ep.URL(drawingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %d", target, resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "json") {
		return nil, fmt.Errorf("GET %s: unexpected content type %q", target, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("GET %s: response body exceeds %d bytes", target, maxBodyBytes)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("GET %s: response body is not valid JSON", target)
	}
	if !hasDrawnNumbersField(body) {
		return nil, fmt.Errorf("GET %s: JSON has none of the drawn number fields %v", target, drawnNumbersFields)
	}

	return models.RawResult(body), nil
}

func hasDrawnNumbersField(body []byte) bool {
	for _, result := range gjson.GetManyBytes(body, drawnNumbersFields...) {
		if result.Exists() {
			return true
		}
	}
	return false
}
