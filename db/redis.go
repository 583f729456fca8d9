package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/caliper-tracking/caliper-tracking-backend/config"
	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options for the lookup cache.
func RedisOptions(cfg *config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:            cfg.Address,
		Password:        cfg.Password,
		DB:              cfg.DB,
		ConnMaxLifetime: time.Hour,
		MaxRetries:      3,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 2 * time.Second,
		DialTimeout:     5 * time.Second,
		// Lookups fall through to Postgres, so a slow cache must fail fast.
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	logger.GetLogger().Infow("Configuring Redis connection",
		"address", cfg.Address,
		"db", cfg.DB,
		"use_tls", cfg.UseTLS)
	return opts
}

// PingRedis pings the server up to attempts times, sleeping delay between tries.
func PingRedis(ctx context.Context, client redis.Cmdable, attempts int, delay time.Duration) error {
	log := logger.GetLogger()
	var err error
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			if i > 0 {
				log.Infow("Connected to Redis after retries", "attempt", i+1)
			}
			return nil
		}
		if i < attempts-1 {
			log.Warnw("Failed to ping Redis, retrying", "error", err, "attempt", i+1, "max_attempts", attempts)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("failed to ping Redis after %d attempts: %w", attempts, err)
}
