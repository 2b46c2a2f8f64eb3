package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces portal keys inside a shared Redis database.
const DefaultRedisPrefix = "portal:"

// Redis stores values as plain Redis strings under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// ConnectRedis creates a client for addr and verifies it answers PING.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/storage: redis ping: %w", err)
	}
	return client, nil
}

// NewRedis wraps client. An empty prefix falls back to DefaultRedisPrefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// GetMany implements Storage with a single MGET so the snapshot is consistent.
func (r *Redis) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = r.key(k)
	}
	values, err := r.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("platform/storage: redis mget: %w", err)
	}
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

// SetMany implements Storage inside MULTI/EXEC.
func (r *Redis) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("platform/storage: redis set: %w", err)
	}
	return nil
}

const maxWatchRetries = 3

// SetManyIf implements Storage with WATCH on the guard key and MULTI/EXEC for the
// writes. A transaction aborted by a concurrent change of the guard is retried.
func (r *Redis) SetManyIf(ctx context.Context, guardKey, expected string, values map[string]string) (bool, error) {
	guard := r.key(guardKey)
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		written := false
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, guard).Result()
			if errors.Is(err, redis.Nil) {
				return nil
			}
			if err != nil {
				return err
			}
			if current != expected {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for k, v := range values {
					pipe.Set(ctx, r.key(k), v, 0)
				}
				return nil
			})
			if err == nil {
				written = true
			}
			return err
		}, guard)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("platform/storage: redis conditional set: %w", err)
		}
		return written, nil
	}
	return false, fmt.Errorf("platform/storage: redis conditional set: %w", redis.TxFailedErr)
}

// Delete implements Storage.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = r.key(k)
	}
	if err := r.client.Del(ctx, redisKeys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("platform/storage: redis del: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Storage = (*Redis)(nil)
