package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecopulse-analytics-api/config"
	"ecopulse-analytics-api/store"

	"github.com/redis/go-redis/v9"
)

const (
	// RecordsChannel carries models.RecordEvent messages after record writes.
	RecordsChannel         = "ecopulse:records"
	// NationalForecastPrefix prefixes cached national forecast responses.
	NationalForecastPrefix = "predictions:"
)

var redisStartupRetry = store.RetryPolicy{MaxAttempts: 10, Delay: 2 * time.Second}

// CacheService wraps redis for response caching and pub/sub. With a nil
// client every method is a no-op miss.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(cfg config.RedisConfig) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := redisStartupRetry.Do(context.Background(), "redis ping", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return &CacheService{client: nil}, err
	}
	return &CacheService{client: client}, nil
}

func (s *CacheService) Client() *redis.Client {
	return s.client
}

func (s *CacheService) Available() bool {
	return s.client != nil
}

// Get decodes a cached value into dest. A miss leaves dest untouched and
// returns nil; an unavailable cache returns redis.Nil.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if s.client == nil {
		return redis.Nil
	}
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Delete(ctx context.Context, key string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

// InvalidatePrefix deletes every key starting with prefix.
func (s *CacheService) InvalidatePrefix(ctx context.Context, prefix string) error {
	if s.client == nil {
		return nil
	}
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if s.client == nil {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

func (s *CacheService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
