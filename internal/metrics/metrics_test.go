package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve_IncrementsCounters(t *testing.T) {
	m := New()
	m.ObserveRetry("rate_limited")
	m.ObserveRetry("rate_limited")
	m.ObserveCache("members", true)
	m.ObserveRefresh("failure")

	if got := testutil.ToFloat64(m.retries.WithLabelValues("rate_limited")); got != 2 {
		t.Fatalf("expected 2 rate-limited retries, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("members", "hit")); got != 1 {
		t.Fatalf("expected 1 cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.refreshes.WithLabelValues("failure")); got != 1 {
		t.Fatalf("expected 1 refresh failure, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveResponse(200)
	m.ObserveRetry("network")
	m.ObserveCache("projects", false)
	m.ObserveRefresh("success")
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveResponse(429)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `tracklens_hubstaff_requests_total{status="429"} 1`) {
		t.Fatalf("expected request counter in exposition, got:\n%s", body)
	}
}
