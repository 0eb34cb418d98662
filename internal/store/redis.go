package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisKV implements KV using Redis string keys
type RedisKV struct {
	client *redis.Client
	ttl    time.Duration // zero keeps slots forever
}

// NewRedisKV connects and pings before returning
func NewRedisKV(redisURL string, ttl time.Duration) (*RedisKV, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse Redis URL")
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisKV{client: client, ttl: ttl}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to load slot %s from Redis", key)
	}
	return data, true, nil
}

// Set writes the slot and refreshes its TTL
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save slot %s to Redis", key)
	}
	return nil
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}
