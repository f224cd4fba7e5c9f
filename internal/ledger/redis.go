package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces ledger keys.
const DefaultRedisKeyPrefix = "feedtoot:posted"

// Redis stores each posted id as a key without expiry.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedisWithURL connects using a redis:// URL.
func NewRedisWithURL(url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewRedisWithClient(redis.NewClient(opts), prefix), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(id string) string {
	return r.prefix + ":" + id
}

func (r *Redis) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %q: %v", ErrStorageUnavailable, id, err)
	}
	return n > 0, nil
}

func (r *Redis) Record(ctx context.Context, id string) error {
	ok, err := r.client.SetNX(ctx, r.key(id), 1, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: setnx %q: %v", ErrWriteAmbiguous, id, err)
	}
	if !ok {
		return ErrAlreadyRecorded
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
