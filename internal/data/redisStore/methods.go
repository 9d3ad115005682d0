package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	return count > 0, err
}

// ListAppend pushes value, keeps only the newest maxLen entries and refreshes the ttl of every key, in one transaction.
func (s *Store) ListAppend(ctx context.Context, key string, value interface{}, maxLen int64, ttl time.Duration, touch ...string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, value)
		if maxLen > 0 {
			pipe.LTrim(ctx, key, -maxLen, -1)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
			for _, k := range touch {
				pipe.Expire(ctx, k, ttl)
			}
		}
		return nil
	})
	return err
}

// ListTail returns the last n entries oldest first, n <= 0 returns the whole list.
func (s *Store) ListTail(ctx context.Context, key string, n int64) ([]string, error) {
	start := int64(0)
	if n > 0 {
		start = -n
	}
	return s.client.LRange(ctx, key, start, -1).Result()
}
