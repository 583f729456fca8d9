// Package cache provides Redis read-through decorators for the directory
// stores. Usernames and team topics rarely change, and the transformer
// resolves the same ids for every event a learner emits.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	usernameKeyPrefix  = "caliper:username:"
	teamTopicKeyPrefix = "caliper:team_topic:"
)

// Metrics counts cache hits and misses per lookup kind.
type Metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// NewMetrics registers the cache counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caliper_lookup_cache_hits_total",
			Help: "Directory lookups served from Redis",
		}, []string{"kind"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caliper_lookup_cache_misses_total",
			Help: "Directory lookups that fell through to the database",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.hits, m.misses)
	return m
}

// readThrough returns the cached value at key or loads, stores and returns it.
// Redis failures are logged and never fail the lookup.
func readThrough(ctx context.Context, client redis.Cmdable, ttl time.Duration, m *Metrics, kind, key string, load func() (string, error)) (string, error) {
	log := logger.GetLogger()

	val, err := client.Get(ctx, key).Result()
	switch {
	case err == nil:
		m.hits.WithLabelValues(kind).Inc()
		return val, nil
	case !errors.Is(err, redis.Nil):
		log.Warnw("Cache read failed, falling back to store", "key", key, "error", err)
	}
	m.misses.WithLabelValues(kind).Inc()

	val, err = load()
	if err != nil {
		return "", err
	}

	if err := client.Set(ctx, key, val, ttl).Err(); err != nil {
		log.Warnw("Cache write failed", "key", key, "error", err)
	}
	return val, nil
}

// UserStore caches store.UserStore lookups.
type UserStore struct {
	next    store.UserStore
	client  redis.Cmdable
	ttl     time.Duration
	metrics *Metrics
}

var _ store.UserStore = (*UserStore)(nil)

func NewUserStore(next store.UserStore, client redis.Cmdable, ttl time.Duration, metrics *Metrics) *UserStore {
	return &UserStore{next: next, client: client, ttl: ttl, metrics: metrics}
}

func (s *UserStore) GetUsernameByID(ctx context.Context, userID int64) (string, error) {
	key := usernameKeyPrefix + strconv.FormatInt(userID, 10)
	return readThrough(ctx, s.client, s.ttl, s.metrics, "username", key, func() (string, error) {
		return s.next.GetUsernameByID(ctx, userID)
	})
}

// TeamStore caches store.TeamStore lookups.
type TeamStore struct {
	next    store.TeamStore
	client  redis.Cmdable
	ttl     time.Duration
	metrics *Metrics
}

var _ store.TeamStore = (*TeamStore)(nil)

func NewTeamStore(next store.TeamStore, client redis.Cmdable, ttl time.Duration, metrics *Metrics) *TeamStore {
	return &TeamStore{next: next, client: client, ttl: ttl, metrics: metrics}
}

func (s *TeamStore) GetTopicIDByTeamID(ctx context.Context, teamID string) (string, error) {
	return readThrough(ctx, s.client, s.ttl, s.metrics, "team_topic", teamTopicKeyPrefix+teamID, func() (string, error) {
		return s.next.GetTopicIDByTeamID(ctx, teamID)
	})
}
