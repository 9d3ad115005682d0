package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

type Store struct {
	client *redis.Client
	Type   int
	logger *logger_i.Logger
}

// New connects to one logical redis database and pings it.
func New(ctx context.Context, cfg config.HistoryConfig, db int) (*Store, error) {
	logger := logger_i.NewLogger("redis_store").With("db", db)
	client := redis.NewClient(&redis.Options{
		Addr:                  cfg.RedisAddr,
		Password:              cfg.RedisPassword,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("Redis is offline", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("Redis store init successfully", "addr", cfg.RedisAddr)
	return &Store{client: client, Type: db, logger: logger}, nil
}

// NewTestStore wraps an existing client, typically one pointed at miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger_i.NewLogger("redis_store"),
	}
}

func (s *Store) Close() error {
	s.logger.Info("Closing Redis Store")
	return s.client.Close()
}
