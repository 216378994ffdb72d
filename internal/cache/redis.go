package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yusufkaya/waqt/internal/logging"
	"github.com/yusufkaya/waqt/internal/schedule"
)

var logger = logging.Logger

// RedisTier is an optional second cache tier for multi-instance
// deployments, storing marshaled Schedule JSON keyed the same way as
// the in-memory ScheduleCache.
type RedisTier struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedSchedule struct {
	Schedule schedule.Schedule `json:"schedule"`
	CachedAt time.Time         `json:"cached_at"`
}

// NewRedisTier connects to Redis and verifies the connection with a
// ping before returning.
func NewRedisTier(addr, password string, db int, ttl time.Duration) (*RedisTier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithField("addr", addr).WithField("db", db).WithField("ttl", ttl).
		Info("Redis cache tier connected")

	return &RedisTier{client: client, ttl: ttl}, nil
}

// Get retrieves a cached Schedule, returning (Schedule{}, false) on a
// miss, a stale read, or a corrupted entry (which is deleted).
func (r *RedisTier) Get(ctx context.Context, key string) (schedule.Schedule, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.WithField("key", key).WithError(err).Warn("Redis cache get failed")
		}
		return schedule.Schedule{}, false
	}

	var cached cachedSchedule
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		logger.WithField("key", key).WithError(err).Warn("corrupted Redis cache entry, dropping")
		r.client.Del(ctx, key)
		return schedule.Schedule{}, false
	}

	if time.Since(cached.CachedAt) > r.ttl {
		r.client.Del(ctx, key)
		return schedule.Schedule{}, false
	}

	return cached.Schedule, true
}

// Set stores a Schedule under key with this tier's TTL.
func (r *RedisTier) Set(ctx context.Context, key string, sched schedule.Schedule) error {
	cached := cachedSchedule{Schedule: sched, CachedAt: time.Now()}
	body, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, key, body, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *RedisTier) Close() error {
	return r.client.Close()
}

// HealthCheck pings Redis.
func (r *RedisTier) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
