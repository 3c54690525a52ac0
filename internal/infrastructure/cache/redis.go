package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"nutrisync/internal/logger"
)

// Redis is an optional read-through cache. When the server is unreachable at
// startup, or becomes unreachable later, every operation degrades to a no-op
// so callers never fail because of the cache.
type Redis struct {
	client *redis.Client
	log    logger.Logger
	ttl    time.Duration

	warnedUnavailable atomic.Bool
}

type Config struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

func NewRedis(cfg Config, log logger.Logger) *Redis {
	if log == nil {
		log = logger.NewNop()
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "6379"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 600 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: strings.TrimSpace(cfg.Password),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, bypassing cache", "error", err)
		_ = client.Close()
		return &Redis{client: nil, log: log, ttl: ttl}
	}

	return &Redis{client: client, log: log, ttl: ttl}
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r == nil {
		return
	}
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.log.Warn("redis unavailable, bypassing cache", "error", err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return errors.New("redis unavailable")
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.warnUnavailableOnce(err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.isUnavailable() {
		return nil
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.isUnavailable() {
		return nil
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if err := r.client.Del(ctx, k).Err(); err != nil {
			r.log.Warn("redis delete error", "key", k, "pattern", pattern, "error", err)
		}
	}
	return iter.Err()
}

// InvalidateUserGoals drops every cached goal view for a user, called after
// goals are recomputed for that user.
func (r *Redis) InvalidateUserGoals(ctx context.Context, userID string) error {
	if r.isUnavailable() {
		return nil
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil
	}
	return r.DeleteByPattern(ctx, "goals:"+userID+":*")
}

// SetIfNotExists is a best-effort lock primitive. Returns false without error
// when the cache is down, so callers fall back to uncoordinated execution.
func (r *Redis) SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return false, err
	}
	return ok, nil
}

// GoalKey builds the cache key for a user's goals on a given calendar day.
func GoalKey(userID string, date time.Time) string {
	return fmt.Sprintf("goals:%s:%s", userID, date.UTC().Format("2006-01-02"))
}
