// Package hubstaff integrates the Hubstaff time-tracking API: authenticated requests with
// rate-limit retry, cached organization lookups, and enriched daily activity records.
package hubstaff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pysugar/tracklens/internal/clock"
	"github.com/pysugar/tracklens/internal/logging"
	"github.com/pysugar/tracklens/internal/metrics"
	"github.com/pysugar/tracklens/internal/util"
)

const (
	// DefaultMaxRetries bounds retries for one logical request.
	DefaultMaxRetries = 3

	initialBackoff = 2 * time.Second
	networkBackoff = time.Second
)

// TokenProvider supplies bearer tokens; false means authentication is unavailable.
type TokenProvider interface {
	GetValidAccessToken(ctx context.Context) (string, bool)
}

// Client issues authenticated Hubstaff API requests.
type Client struct {
	httpClient *http.Client
	tokens     TokenProvider
	maxRetries int
	clock      clock.Clock
	metrics    *metrics.Metrics

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOptions configures a Client. Zero values pick defaults.
type ClientOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
	Clock      clock.Clock
	Metrics    *metrics.Metrics
}

// NewClient creates a Hubstaff API client.
func NewClient(tokens TokenProvider, opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		maxRetries: maxRetries,
		clock:      clk,
		metrics:    opts.Metrics,
		sleep:      sleepContext,
	}
}

// FetchWithRetry performs an authenticated request.
// A 429 is retried after the Retry-After delay or an exponential backoff starting at 2s;
// a transport error is retried after 1s. When retries run out the last response
// (possibly still a 429) or the last transport error is returned.
func (c *Client) FetchWithRetry(ctx context.Context, method, rawURL string, body []byte) (*http.Response, error) {
	accessToken, ok := c.tokens.GetValidAccessToken(ctx)
	if !ok {
		return nil, ErrAuthUnavailable
	}

	requestID := logging.GetRequestID(ctx)
	retriesLeft := c.maxRetries
	backoff := initialBackoff
	for {
		req, err := c.newRequest(ctx, method, rawURL, body, accessToken)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if retriesLeft == 0 || ctx.Err() != nil {
				return nil, fmt.Errorf("hubstaff request %s: %w", rawURL, err)
			}
			log.Printf("[%s] ⚠️ Hubstaff request failed, retrying in %s (%d left): %v", requestID, networkBackoff, retriesLeft, err)
			c.metrics.ObserveRetry("network")
			if err := c.sleep(ctx, networkBackoff); err != nil {
				return nil, err
			}
			retriesLeft--
			continue
		}

		c.metrics.ObserveResponse(resp.StatusCode)
		if resp.StatusCode != http.StatusTooManyRequests || retriesLeft == 0 {
			return resp, nil
		}

		wait := ParseRetryDelay(resp, c.clock.Now())
		if wait <= 0 {
			wait = backoff
		}
		drainAndClose(resp)
		log.Printf("[%s] ⏳ Hubstaff rate limited, retrying in %s (%d left)", requestID, wait, retriesLeft)
		c.metrics.ObserveRetry("rate_limited")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		backoff *= 2
		retriesLeft--
	}
}

// GetJSON fetches rawURL and decodes a 2xx JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := c.FetchWithRetry(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read hubstaff response %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[%s] ❌ Hubstaff %s returned %s: %s", logging.GetRequestID(ctx), rawURL, resp.Status, util.TruncateBytes(data))
		return &APIError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       util.TruncateLog(string(data), 512),
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode hubstaff response %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body []byte, accessToken string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build hubstaff request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
