package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pysugar/tracklens/internal/auth/token"
	"github.com/pysugar/tracklens/internal/hubstaff"
	"github.com/pysugar/tracklens/internal/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeUpstreamError maps service errors onto HTTP statuses.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusBadGateway, "hubstaff request failed"
	switch {
	case errors.Is(err, hubstaff.ErrInvalidRange):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, hubstaff.ErrAuthUnavailable),
		errors.Is(err, token.ErrNoRefreshToken),
		errors.Is(err, token.ErrPeerRefreshing):
		status, message = http.StatusServiceUnavailable, "hubstaff authentication unavailable"
	case errors.Is(err, hubstaff.ErrNotConfigured):
		status, message = http.StatusServiceUnavailable, err.Error()
	case hubstaff.IsRateLimited(err):
		status, message = http.StatusTooManyRequests, "rate limit reached, try again later"
	}
	log.Printf("[%s] ❌ %s %s: %v", logging.GetRequestID(r.Context()), r.Method, r.URL.Path, err)
	writeError(w, status, message)
}
