package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a Redis-backed implementation of Store, for deployments
// where the client state should live in a shared cache rather than a
// local file. Values are stored without expiry.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

// OpenRedisStore connects to Redis using a redis:// URL and verifies
// the connection with a ping.
func OpenRedisStore(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, timeout: 5 * time.Second}, nil
}

// Get returns the value for key, treating any backend error as absent.
func (s *RedisStore) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("redis store read failed for %q: %v", key, err)
		}
		return "", false
	}
	return value, true
}

// Set replaces the value for key; failures are logged only.
func (s *RedisStore) Set(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		log.Printf("redis store write failed for %q: %v", key, err)
	}
}

// Remove deletes key; failures are logged only.
func (s *RedisStore) Remove(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		log.Printf("redis store delete failed for %q: %v", key, err)
	}
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
