package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dhanush-hc/hrms-backend-go/internal/config"
)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// AttemptStore counts check-in attempts per employee inside a sliding
// expiry window, backing the rapid-attempt fraud check.
type AttemptStore struct {
	client *redis.Client
	window time.Duration
}

// NewAttemptStore creates an attempt store with the given window.
func NewAttemptStore(client *redis.Client, window time.Duration) *AttemptStore {
	return &AttemptStore{client: client, window: window}
}

func (s *AttemptStore) key(employeeID string) string {
	return "attendance:attempts:" + employeeID
}

// RecordAttempt increments the employee's attempt counter and returns the
// count within the current window, this attempt included. The window opens
// on the first attempt; later attempts do not extend it.
func (s *AttemptStore) RecordAttempt(ctx context.Context, employeeID string) (int64, error) {
	key := s.key(employeeID)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}

	return incr.Val(), nil
}

// ClearAttempts resets the employee's attempt counter. Used after a record
// lands so the next day's first check-in starts clean.
func (s *AttemptStore) ClearAttempts(ctx context.Context, employeeID string) error {
	if err := s.client.Del(ctx, s.key(employeeID)).Err(); err != nil {
		return fmt.Errorf("failed to clear attempts: %w", err)
	}
	return nil
}
