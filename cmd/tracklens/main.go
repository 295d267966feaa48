package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pysugar/tracklens/internal/api"
	"github.com/pysugar/tracklens/internal/auth/token"
	"github.com/pysugar/tracklens/internal/config"
	"github.com/pysugar/tracklens/internal/db"
	"github.com/pysugar/tracklens/internal/hubstaff"
	"github.com/pysugar/tracklens/internal/metrics"
	"github.com/pysugar/tracklens/internal/team"
	"github.com/pysugar/tracklens/internal/version"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ No .env file loaded, using process environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("⚠️ Configuration incomplete, Hubstaff calls will fail: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	roster, err := team.Load(cfg.TeamFile)
	if err != nil {
		log.Fatalf("Failed to load team roster: %v", err)
	}

	m := metrics.New()

	// Initialize token manager
	tokenOpts := token.Options{
		TokenURL:              cfg.TokenURL(),
		BootstrapRefreshToken: cfg.RefreshToken,
		HTTPClient:            &http.Client{Timeout: cfg.HTTPTimeout},
		Metrics:               m,
	}
	if client := newRedisClient(cfg); client != nil {
		tokenOpts.Locker = token.NewRedisLocker(client)
		log.Printf("🔒 Cross-process token refresh lock enabled")
	}
	tokenManager := token.NewManager(db.NewTokenStore(database), tokenOpts)

	// Initialize Hubstaff client and organization data
	client := hubstaff.NewClient(tokenManager, hubstaff.ClientOptions{
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		Metrics:    m,
	})
	service := hubstaff.NewService(client, hubstaff.ServiceOptions{
		APIBase:  cfg.APIBase,
		OrgID:    cfg.OrgID,
		Roster:   roster,
		CacheTTL: cfg.CacheTTL,
		Metrics:  m,
	})

	router := api.NewRouter(api.Dependencies{
		Tokens:         tokenManager,
		Org:            service,
		Roster:         roster,
		MetricsHandler: m.Handler(),
		AdminPassword:  cfg.AdminPassword,
	})

	addr := cfg.Addr()
	displayURL := "localhost:" + cfg.Port
	if cfg.Host == "0.0.0.0" {
		displayURL = "<your-ip>:" + cfg.Port
	}

	log.Printf("🚀 Tracklens %s starting on http://%s", version.Version, addr)
	log.Printf("🔌 API: http://%s/api", displayURL)
	log.Printf("📊 Metrics: http://%s/metrics", displayURL)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// newRedisClient returns nil when REDIS_URL is unset or unreachable.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	var opts *redis.Options
	if strings.Contains(cfg.RedisURL, "://") {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Invalid REDIS_URL, refresh lock disabled: %v", err)
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.RedisURL}
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unreachable at %s, refresh lock disabled: %v", opts.Addr, err)
		client.Close()
		return nil
	}
	return client
}
