// Package cache keeps short-lived per-user results in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"interview-coach/internal/models"
	"interview-coach/internal/observability"

	"github.com/go-redis/redis/v8"
)

const (
	// BehaviourKeyPrefix prefixes the latest behaviour metrics of a user.
	BehaviourKeyPrefix = "behaviour:latest:"
	// SuggestionKeyPrefix prefixes coaching suggestions keyed by user and score history.
	SuggestionKeyPrefix = "suggestion:"
	// DefaultTTL is used when no TTL is configured.
	DefaultTTL = time.Hour
)

// Store is the cache surface used by the services.
type Store interface {
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// GetJSON decodes the value at key into dest, reporting false on a miss.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
}

// RedisCache implements Store on a Redis connection.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (r *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *RedisCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.CacheMisses.Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	observability.CacheHits.Inc()
	return true, nil
}

// Ping checks the Redis connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Noop is a Store that never holds anything, used when Redis is unavailable.
type Noop struct{}

func (Noop) SetJSON(context.Context, string, any, time.Duration) error { return nil }

func (Noop) GetJSON(context.Context, string, any) (bool, error) {
	observability.CacheMisses.Inc()
	return false, nil
}

// BehaviourKey is the key of a user's latest behaviour metrics.
func BehaviourKey(username string) string {
	return BehaviourKeyPrefix + username
}

// SuggestionKey is the key of the coaching suggestion for a user's score history.
func SuggestionKey(username string, scores []int) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = strconv.Itoa(s)
	}
	return SuggestionKeyPrefix + username + ":" + strings.Join(parts, "_")
}

// SaveBehaviour stores m as the user's latest behaviour metrics.
func SaveBehaviour(ctx context.Context, s Store, username string, m models.BehaviourMetrics, ttl time.Duration) error {
	return s.SetJSON(ctx, BehaviourKey(username), m, ttl)
}

// LatestBehaviour loads the user's latest behaviour metrics.
func LatestBehaviour(ctx context.Context, s Store, username string) (models.BehaviourMetrics, bool, error) {
	var m models.BehaviourMetrics
	ok, err := s.GetJSON(ctx, BehaviourKey(username), &m)
	return m, ok, err
}
