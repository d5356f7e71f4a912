package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps limiter state in Redis so several server instances can
// share one view of each client. Counters live under ratelimit:count:<key>
// with the window as TTL; bans live under ratelimit:ban:<key>.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection before
// returning.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ratelimit redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }

func counterKey(key string) string { return "ratelimit:count:" + key }
func banKey(key string) string     { return "ratelimit:ban:" + key }

// Incr implements Store. The window TTL is set only when the counter is
// created, so the window start stays pinned to the first request.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration, _ time.Time) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, counterKey(key))
	pipe.ExpireNX(ctx, counterKey(key), window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("ratelimit incr: %w", err)
	}
	return incr.Val(), nil
}

// Ban implements Store. The counter is deleted alongside so the client sees
// a fresh window once the ban key expires.
func (s *RedisStore) Ban(ctx context.Context, key string, penalty time.Duration, _ time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, banKey(key), "1", penalty)
	pipe.Del(ctx, counterKey(key))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ratelimit ban: %w", err)
	}
	return nil
}

// Banned implements Store, reading the remaining penalty off the ban key's
// TTL.
func (s *RedisStore) Banned(ctx context.Context, key string, _ time.Time) (time.Duration, bool, error) {
	remaining, err := s.client.PTTL(ctx, banKey(key)).Result()
	if err != nil {
		return 0, false, fmt.Errorf("ratelimit ban lookup: %w", err)
	}
	if remaining <= 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}
