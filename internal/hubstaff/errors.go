package hubstaff

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthUnavailable means no valid Hubstaff access token could be obtained.
	ErrAuthUnavailable = errors.New("hubstaff authentication unavailable")
	// ErrInvalidRange is returned for malformed or inverted date ranges.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrNotConfigured means no organization id was configured.
	ErrNotConfigured = errors.New("hubstaff organization id not configured")
)

// APIError is a non-2xx response from the Hubstaff API.
type APIError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hubstaff request %s failed (%s): %s", e.URL, e.Status, e.Body)
}

// IsRateLimited reports whether the request was still rate limited after retries.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimited reports whether err carries a 429 that exhausted the retry budget.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsRateLimited()
}
