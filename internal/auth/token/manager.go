package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pysugar/tracklens/internal/clock"
	"github.com/pysugar/tracklens/internal/db/models"
	"github.com/pysugar/tracklens/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// RefreshMargin is how early to refresh before expiration
	RefreshMargin = 5 * time.Minute

	exchangeTimeout = 5 * time.Second
	refreshLockKey  = "tracklens:hubstaff:token-refresh"
	refreshLockTTL  = 30 * time.Second
	flightKey       = "refresh"
)

var (
	// ErrNoRefreshToken means neither a persisted nor a bootstrap refresh token is available.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrPeerRefreshing means another process holds the refresh lock and did not publish a token in time.
	ErrPeerRefreshing = errors.New("token refresh in progress in another process")
)

// Store is the durable home of the token record.
type Store interface {
	Load(ctx context.Context) (*models.TokenRecord, error)
	Save(ctx context.Context, rec *models.TokenRecord) error
}

// Options configures a Manager. TokenURL is required.
type Options struct {
	TokenURL              string
	BootstrapRefreshToken string
	HTTPClient            *http.Client
	Clock                 clock.Clock
	Locker                Locker
	Metrics               *metrics.Metrics
}

// Manager keeps one valid bearer token for the Hubstaff service account.
// Refreshes are single-flight per process; across processes they are serialized by Locker when set.
type Manager struct {
	store      Store
	tokenURL   string
	bootstrap  string
	httpClient *http.Client
	clock      clock.Clock
	locker     Locker
	metrics    *metrics.Metrics

	// polling while a peer process holds the refresh lock
	peerPolls    int
	peerInterval time.Duration
	sleep        func(context.Context, time.Duration) error

	mu     sync.RWMutex
	cached *models.TokenRecord

	flight singleflight.Group
}

// NewManager creates a token manager backed by store.
func NewManager(store Store, opts Options) *Manager {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	return &Manager{
		store:        store,
		tokenURL:     opts.TokenURL,
		bootstrap:    strings.TrimSpace(opts.BootstrapRefreshToken),
		httpClient:   httpClient,
		clock:        clk,
		locker:       opts.Locker,
		metrics:      opts.Metrics,
		peerPolls:    5,
		peerInterval: time.Second,
		sleep:        sleepContext,
	}
}

// GetValidAccessToken returns an access token that is valid for at least RefreshMargin.
// It returns false when no token can be obtained; the failure is logged, never returned.
func (m *Manager) GetValidAccessToken(ctx context.Context) (string, bool) {
	if rec := m.current(ctx); m.isFresh(rec) {
		return rec.AccessToken, true
	}

	token, err := m.refreshShared(ctx, false)
	if err != nil {
		log.Printf("❌ Hubstaff authentication unavailable: %v", err)
		return "", false
	}
	return token, true
}

// Refresh forces a token exchange, sharing any refresh already in flight.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err := m.refreshShared(ctx, true)
	return err
}

// Status describes the current token without exposing it.
type Status struct {
	HasToken  bool      `json:"has_token"`
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	TokenHint string    `json:"token_hint,omitempty"`
}

// Status reports whether a token is stored and whether it is still usable.
func (m *Manager) Status(ctx context.Context) Status {
	rec := m.current(ctx)
	if rec == nil || rec.AccessToken == "" {
		return Status{}
	}
	return Status{
		HasToken:  true,
		Valid:     m.isFresh(rec),
		ExpiresAt: rec.ExpiresAtTime().UTC(),
		TokenHint: maskToken(rec.AccessToken),
	}
}

// refreshShared joins or starts the process-wide refresh flight.
// The flight runs detached from the caller's cancellation so one caller leaving
// does not fail everyone waiting on the same exchange.
func (m *Manager) refreshShared(ctx context.Context, force bool) (string, error) {
	ch := m.flight.DoChan(flightKey, func() (interface{}, error) {
		return m.refresh(context.WithoutCancel(ctx), force)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) refresh(ctx context.Context, force bool) (string, error) {
	// A caller may have observed a stale token just before the previous flight settled.
	if !force {
		if rec := m.current(ctx); m.isFresh(rec) {
			return rec.AccessToken, nil
		}
	}
	if m.locker == nil {
		return m.exchange(ctx)
	}
	return m.refreshLocked(ctx, force)
}

func (m *Manager) refreshLocked(ctx context.Context, force bool) (string, error) {
	owner, acquired, err := m.locker.TryLock(ctx, refreshLockKey, refreshLockTTL)
	if err != nil {
		log.Printf("⚠️ Refresh lock unavailable, refreshing without it: %v", err)
		return m.exchange(ctx)
	}
	if !acquired {
		return m.awaitPeerRefresh(ctx)
	}
	defer func() {
		if err := m.locker.Release(ctx, refreshLockKey, owner); err != nil {
			log.Printf("⚠️ Failed to release refresh lock: %v", err)
		}
	}()

	// Another process may have rotated the token while we waited for the lock.
	if !force {
		if rec := m.loadFromStore(ctx); m.isFresh(rec) {
			m.setCached(rec)
			return rec.AccessToken, nil
		}
	}
	return m.exchange(ctx)
}

func (m *Manager) awaitPeerRefresh(ctx context.Context) (string, error) {
	log.Printf("⏳ Token refresh held by another process, waiting for it to publish")
	for i := 0; i < m.peerPolls; i++ {
		if err := m.sleep(ctx, m.peerInterval); err != nil {
			return "", err
		}
		if rec := m.loadFromStore(ctx); m.isFresh(rec) {
			m.setCached(rec)
			return rec.AccessToken, nil
		}
	}
	return "", ErrPeerRefreshing
}

// exchange trades the latest refresh token for a new token pair and persists it.
func (m *Manager) exchange(ctx context.Context) (string, error) {
	refreshToken := m.bootstrap
	if rec := m.latestRecord(ctx); rec != nil && rec.RefreshToken != "" {
		refreshToken = rec.RefreshToken
	}
	if refreshToken == "" {
		m.metrics.ObserveRefresh("failure")
		return "", ErrNoRefreshToken
	}

	log.Printf("🔄 Refreshing Hubstaff access token...")

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	exchangeCtx = context.WithValue(exchangeCtx, oauth2.HTTPClient, m.httpClient)

	config := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  m.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	issuedAt := m.clock.Now()
	newToken, err := config.TokenSource(exchangeCtx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		m.metrics.ObserveRefresh("failure")
		if isPermanentRefreshError(err) {
			log.Printf("🔒 Hubstaff rejected the refresh token; a new HUBSTAFF_REFRESH_TOKEN is required")
		}
		return "", fmt.Errorf("refresh token exchange failed: %w", err)
	}

	rec := &models.TokenRecord{
		Key:          models.HubstaffTokenKey,
		AccessToken:  newToken.AccessToken,
		RefreshToken: newToken.RefreshToken,
		ExpiresAt:    issuedAt.Add(expiresIn(newToken, issuedAt)).UnixMilli(),
	}
	// The provider has already invalidated the old refresh token, so the new
	// pair is cached even if the durable write fails.
	if err := m.store.Save(ctx, rec); err != nil {
		log.Printf("⚠️ Failed to persist refreshed token: %v", err)
	}
	m.setCached(rec)
	m.metrics.ObserveRefresh("success")

	log.Printf("✅ Hubstaff token refreshed (token: %s, expires: %s)",
		maskToken(rec.AccessToken), rec.ExpiresAtTime().UTC().Format(time.RFC3339))
	return rec.AccessToken, nil
}

// current returns the cached record, loading it from the store on first use.
func (m *Manager) current(ctx context.Context) *models.TokenRecord {
	m.mu.RLock()
	rec := m.cached
	m.mu.RUnlock()
	if rec != nil {
		return rec
	}

	rec = m.loadFromStore(ctx)
	if rec != nil {
		m.setCached(rec)
		log.Printf("📦 Loaded Hubstaff token from storage (expires: %s)", rec.ExpiresAtTime().UTC().Format(time.RFC3339))
	}
	return rec
}

// latestRecord returns whichever of the durable and cached records expires later.
// Ties go to the store so peer rotations win; the cache wins when a rotated pair
// could not be persisted.
func (m *Manager) latestRecord(ctx context.Context) *models.TokenRecord {
	stored := m.loadFromStore(ctx)
	m.mu.RLock()
	cached := m.cached
	m.mu.RUnlock()
	if stored == nil {
		return cached
	}
	if cached != nil && cached.ExpiresAt > stored.ExpiresAt {
		return cached
	}
	return stored
}

func (m *Manager) loadFromStore(ctx context.Context) *models.TokenRecord {
	rec, err := m.store.Load(ctx)
	if err != nil {
		log.Printf("⚠️ Failed to load token record: %v", err)
		return nil
	}
	return rec
}

func (m *Manager) setCached(rec *models.TokenRecord) {
	cp := *rec
	m.mu.Lock()
	m.cached = &cp
	m.mu.Unlock()
}

func (m *Manager) isFresh(rec *models.TokenRecord) bool {
	if rec == nil || rec.AccessToken == "" {
		return false
	}
	return rec.ExpiresAtTime().After(m.clock.Now().Add(RefreshMargin))
}

// expiresIn reads the raw expires_in field so expiry is computed against the injected clock.
// Without it, the parsed Expiry is measured from issuedAt.
func expiresIn(tok *oauth2.Token, issuedAt time.Time) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Duration(n) * time.Second
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Sub(issuedAt)
	}
	return 0
}

func maskToken(t string) string {
	if len(t) < 20 {
		return "..."
	}
	return "..." + t[len(t)-8:]
}

func isPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	permanentMarkers := []string{
		"invalid_grant",
		"invalid_client",
		"unauthorized_client",
		"revoked",
	}
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
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
