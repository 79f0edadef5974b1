package snapshot

import (
	"context"
	"fmt"

	pkgredis "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/redis"
)

// RedisBackend mirrors the snapshot into a single Redis key without expiry.
type RedisBackend struct {
	client *pkgredis.Client
	key    string
}

func NewRedisBackend(client *pkgredis.Client, key string) *RedisBackend {
	return &RedisBackend{client: client, key: key}
}

func (r *RedisBackend) Name() string {
	return "redis"
}

func (r *RedisBackend) Read(ctx context.Context) ([]byte, error) {
	data, err := r.client.GetBytes(ctx, r.key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			return nil, fmt.Errorf("%w: redis key %s", ErrNotFound, r.key)
		}
		return nil, fmt.Errorf("reading redis key %s: %w", r.key, err)
	}
	return data, nil
}

func (r *RedisBackend) Write(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0); err != nil {
		return fmt.Errorf("writing redis key %s: %w", r.key, err)
	}
	return nil
}
