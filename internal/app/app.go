// Package app assembles the tracking helpers from configuration. The HTTP
// server and the CLI share it so both resolve users, teams and links the
// same way.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/caliper-tracking/caliper-tracking-backend/config"
	"github.com/caliper-tracking/caliper-tracking-backend/db"
	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/caliper-tracking/caliper-tracking-backend/mailer"
	"github.com/caliper-tracking/caliper-tracking-backend/services"
	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/caliper-tracking/caliper-tracking-backend/store/cache"
	"github.com/caliper-tracking/caliper-tracking-backend/store/postgres"
	"github.com/caliper-tracking/caliper-tracking-backend/urls"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// App holds the long-lived clients and the services built on them.
type App struct {
	Config        *config.Config
	Registry      *prometheus.Registry
	Pool          *pgxpool.Pool
	Redis         *redis.Client
	WorkerPool    *services.WorkerPool
	Tracking      *services.TrackingService
	Notifications *services.NotificationService
	Health        *services.HealthService
}

// New connects to Postgres (and Redis when enabled), loads the LMS routes
// and builds the services. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.GetLogger()
	a := &App{Config: cfg, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(cfg.Database.URL()); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool, err := db.Connect(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	var (
		users store.UserStore = postgres.NewUserStore(pool)
		teams store.TeamStore = postgres.NewTeamStore(pool)
	)

	if cfg.Redis.Enabled {
		client := redis.NewClient(db.RedisOptions(&cfg.Redis))
		if err := db.PingRedis(ctx, client, 3, time.Second); err != nil {
			// The cache is optional; lookups go straight to Postgres.
			log.Warnw("Redis unavailable, lookup cache disabled", "error", err)
			_ = client.Close()
		} else {
			a.Redis = client
			metrics := cache.NewMetrics(a.Registry)
			users = cache.NewUserStore(users, client, cfg.Redis.CacheTTL(), metrics)
			teams = cache.NewTeamStore(teams, client, cfg.Redis.CacheTTL(), metrics)
		}
	}

	routes, err := urls.LoadRoutes(cfg.LMS.RoutesFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	reverser, err := urls.NewReverser(routes)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Tracking = services.NewTrackingService(users, teams, reverser, cfg.LMS.RootURL)

	m, err := mailer.New(&cfg.Email)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.WorkerPool = services.NewWorkerPool(cfg.WorkerPool, a.Registry)
	a.WorkerPool.Start()
	a.Notifications = services.NewNotificationService(m, a.WorkerPool, time.Duration(cfg.Email.TimeoutSeconds)*time.Second, a.Registry)

	if a.Redis != nil {
		a.Health = services.NewHealthService(pool, a.Redis, cfg.Server.Version)
	} else {
		a.Health = services.NewHealthService(pool, nil, cfg.Server.Version)
	}

	log.Infow("Tracking helpers ready",
		"lms_root_url", cfg.LMS.RootURL,
		"routes", reverser.Names(),
		"email_transport", cfg.Email.Transport,
		"cache_enabled", a.Redis != nil)
	return a, nil
}

// Close drains queued notifications and releases connections.
func (a *App) Close() {
	log := logger.GetLogger()
	if a.WorkerPool != nil {
		timeout := time.Duration(a.Config.WorkerPool.ShutdownTimeoutSeconds) * time.Second
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := a.WorkerPool.Shutdown(ctx); err != nil {
			log.Warnw("Notification queue not drained before shutdown", "error", err)
		}
		cancel()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Warnw("Failed to close Redis client", "error", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
