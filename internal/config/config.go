// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAPIBase  = "https://api.hubstaff.com/v2"
	DefaultAuthBase = "https://account.hubstaff.com"
)

// Config holds everything cmd/tracklens needs to wire the service.
type Config struct {
	Host          string
	Port          string
	DBPath        string
	AdminPassword string

	OrgID        string
	RefreshToken string
	APIBase      string
	AuthBase     string
	CacheTTL     time.Duration
	HTTPTimeout  time.Duration
	MaxRetries   int

	TeamFile string

	RedisURL      string
	RedisPassword string
}

// Load builds a Config from environment variables, applying defaults.
func Load() *Config {
	return &Config{
		Host:          GetEnv("HOST", "127.0.0.1"),
		Port:          GetEnv("PORT", "8080"),
		DBPath:        GetEnv("TRACKLENS_DB_PATH", "tracklens.db"),
		AdminPassword: os.Getenv("TRACKLENS_ADMIN_PASSWORD"),

		OrgID:        strings.TrimSpace(os.Getenv("HUBSTAFF_ORG_ID")),
		RefreshToken: strings.TrimSpace(os.Getenv("HUBSTAFF_REFRESH_TOKEN")),
		APIBase:      strings.TrimRight(GetEnv("HUBSTAFF_API_BASE", DefaultAPIBase), "/"),
		AuthBase:     strings.TrimRight(GetEnv("HUBSTAFF_AUTH_BASE", DefaultAuthBase), "/"),
		CacheTTL:     GetEnvAsDuration("HUBSTAFF_CACHE_TTL", time.Hour),
		HTTPTimeout:  GetEnvAsDuration("HUBSTAFF_HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   GetEnvAsInt("HUBSTAFF_MAX_RETRIES", 3),

		TeamFile: os.Getenv("TRACKLENS_TEAM_FILE"),

		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
}

// Validate reports configuration that would make every remote call fail.
func (c *Config) Validate() error {
	var errs []error
	if c.OrgID == "" {
		errs = append(errs, errors.New("HUBSTAFF_ORG_ID is required"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("HUBSTAFF_MAX_RETRIES must not be negative"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("HUBSTAFF_CACHE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// TokenURL is the refresh-token exchange endpoint.
func (c *Config) TokenURL() string {
	return c.AuthBase + "/access_tokens"
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsDuration accepts Go durations ("90s", "1h") or a bare number of seconds.
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("⚠️ Invalid duration value for %s: %s, using default: %s", key, valueStr, defaultValue)
	return defaultValue
}
