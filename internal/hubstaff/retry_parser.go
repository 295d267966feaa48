package hubstaff

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseRetryDelay extracts the wait requested by a 429 response's Retry-After header.
// Both delta-seconds and HTTP-date forms are accepted. Returns 0 when absent or unparsable.
func ParseRetryDelay(resp *http.Response, now time.Time) time.Duration {
	if resp == nil {
		return 0
	}
	retryAfter := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
