package hubstaff

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

type staticTokens struct {
	token string
	ok    bool
}

func (s staticTokens) GetValidAccessToken(context.Context) (string, bool) { return s.token, s.ok }

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type scriptedStep struct {
	status     int
	retryAfter string
	body       string
	err        error
}

type scriptedTransport struct {
	mu    sync.Mutex
	steps []scriptedStep
	calls int
	auth  []string
}

func (s *scriptedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := s.steps[min(s.calls, len(s.steps)-1)]
	s.calls++
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	if step.err != nil {
		return nil, step.err
	}
	resp := &http.Response{
		StatusCode: step.status,
		Status:     http.StatusText(step.status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(step.body)),
	}
	if step.retryAfter != "" {
		resp.Header.Set("Retry-After", step.retryAfter)
	}
	return resp, nil
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return nil
}

func newScriptedClient(tokens TokenProvider, rt http.RoundTripper) (*Client, *sleepRecorder) {
	c := NewClient(tokens, ClientOptions{HTTPClient: &http.Client{Transport: rt}})
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	return c, rec
}

func TestFetchWithRetry_RateLimitedThenSuccess(t *testing.T) {
	rt := &scriptedTransport{steps: []scriptedStep{
		{status: http.StatusTooManyRequests, retryAfter: "1"},
		{status: http.StatusTooManyRequests},
		{status: http.StatusOK, body: `{"ok":true}`},
	}}
	c, sleeps := newScriptedClient(staticTokens{token: "tok", ok: true}, rt)

	resp, err := c.FetchWithRetry(context.Background(), http.MethodGet, "https://api.example.test/v2/x", nil)
	if err != nil {
		t.Fatalf("FetchWithRetry error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected final 200, got %d", resp.StatusCode)
	}
	if rt.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", rt.calls)
	}
	if len(sleeps.waits) != 2 {
		t.Fatalf("expected 2 waits, got %v", sleeps.waits)
	}
	if sleeps.waits[0] < time.Second {
		t.Fatalf("expected Retry-After to be honored (>=1s), got %v", sleeps.waits[0])
	}
	if sleeps.waits[1] != 4*time.Second {
		t.Fatalf("expected second backoff of 4s, got %v", sleeps.waits[1])
	}
	for i, h := range rt.auth {
		if h != "Bearer tok" {
			t.Fatalf("attempt %d: unexpected Authorization %q", i, h)
		}
	}
}

func TestFetchWithRetry_ExhaustedReturnsLast429(t *testing.T) {
	rt := &scriptedTransport{steps: []scriptedStep{{status: http.StatusTooManyRequests, body: `{"error":"slow down"}`}}}
	c, sleeps := newScriptedClient(staticTokens{token: "tok", ok: true}, rt)

	resp, err := c.FetchWithRetry(context.Background(), http.MethodGet, "https://api.example.test/v2/x", nil)
	if err != nil {
		t.Fatalf("FetchWithRetry error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected final 429, got %d", resp.StatusCode)
	}
	if rt.calls != DefaultMaxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxRetries+1, rt.calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, w := range want {
		if sleeps.waits[i] != w {
			t.Fatalf("wait %d = %v, want %v", i, sleeps.waits[i], w)
		}
	}
}

func TestGetJSON_RateLimitExhaustionIsDistinguishable(t *testing.T) {
	rt := &scriptedTransport{steps: []scriptedStep{{status: http.StatusTooManyRequests}}}
	c, _ := newScriptedClient(staticTokens{token: "tok", ok: true}, rt)

	var out map[string]any
	err := c.GetJSON(context.Background(), "https://api.example.test/v2/x", &out)
	if !IsRateLimited(err) {
		t.Fatalf("expected rate-limited error, got %v", err)
	}
}

func TestGetJSON_ServerErrorNotRetried(t *testing.T) {
	rt := &scriptedTransport{steps: []scriptedStep{{status: http.StatusInternalServerError, body: "boom"}}}
	c, _ := newScriptedClient(staticTokens{token: "tok", ok: true}, rt)

	var out map[string]any
	err := c.GetJSON(context.Background(), "https://api.example.test/v2/x", &out)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Body != "boom" || IsRateLimited(err) {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
	if rt.calls != 1 {
		t.Fatalf("expected no retry for 500, got %d attempts", rt.calls)
	}
}

func TestFetchWithRetry_NetworkErrorRetried(t *testing.T) {
	rt := &scriptedTransport{steps: []scriptedStep{
		{err: errors.New("connection reset")},
		{status: http.StatusOK, body: `{}`},
	}}
	c, sleeps := newScriptedClient(staticTokens{token: "tok", ok: true}, rt)

	resp, err := c.FetchWithRetry(context.Background(), http.MethodGet, "https://api.example.test/v2/x", nil)
	if err != nil {
		t.Fatalf("FetchWithRetry error: %v", err)
	}
	resp.Body.Close()
	if rt.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", rt.calls)
	}
	if len(sleeps.waits) != 1 || sleeps.waits[0] != time.Second {
		t.Fatalf("expected a single 1s wait, got %v", sleeps.waits)
	}
}

func TestFetchWithRetry_NetworkErrorExhausted(t *testing.T) {
	rt := &scriptedTransport{steps: []scriptedStep{{err: errors.New("dial tcp: refused")}}}
	c, _ := newScriptedClient(staticTokens{token: "tok", ok: true}, rt)

	_, err := c.FetchWithRetry(context.Background(), http.MethodGet, "https://api.example.test/v2/x", nil)
	if err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected last transport error, got %v", err)
	}
	if rt.calls != DefaultMaxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxRetries+1, rt.calls)
	}
}

func TestFetchWithRetry_AuthUnavailable(t *testing.T) {
	rt := &scriptedTransport{steps: []scriptedStep{{status: http.StatusOK}}}
	c, _ := newScriptedClient(staticTokens{ok: false}, rt)

	_, err := c.FetchWithRetry(context.Background(), http.MethodGet, "https://api.example.test/v2/x", nil)
	if !errors.Is(err, ErrAuthUnavailable) {
		t.Fatalf("expected ErrAuthUnavailable, got %v", err)
	}
	if rt.calls != 0 {
		t.Fatalf("expected no request without a token, got %d", rt.calls)
	}
}

func TestFetchWithRetry_ContextCanceledDuringBackoff(t *testing.T) {
	rt := &scriptedTransport{steps: []scriptedStep{{status: http.StatusTooManyRequests}}}
	c, _ := newScriptedClient(staticTokens{token: "tok", ok: true}, rt)
	c.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchWithRetry(ctx, http.MethodGet, "https://api.example.test/v2/x", nil)
	if err == nil {
		t.Fatal("expected an error for a canceled context")
	}
}
