package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore is the durable network-backed store.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// OpenRedis connects to Redis and pings it within timeout. A failed ping
// closes the client and returns an error.
func OpenRedis(ctx context.Context, opts RedisOptions, namespace string, timeout time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: timeout,
		MaxRetries:  -1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, namespace: namespace}, nil
}

func (s *RedisStore) redisKey(key string) string {
	return s.namespace + ":" + key
}

// Get returns the stored JSON for key.
func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return json.RawMessage(data), true, nil
}

// Set stores the JSON for key without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := s.client.Set(ctx, s.redisKey(key), []byte(value), 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Kind reports Durable.
func (s *RedisStore) Kind() Kind { return Durable }

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
