package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/study-planner/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps settings in Redis under a prefixed key
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: "study-planner:" + Key}
}

func (r *RedisStore) Load(ctx context.Context) (models.TimerSettings, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.DefaultTimerSettings(), nil
	}
	if err != nil {
		return models.DefaultTimerSettings(), fmt.Errorf("failed to get timer settings from Redis: %w", err)
	}
	return decode(data)
}

func (r *RedisStore) Save(ctx context.Context, s models.TimerSettings) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set timer settings in Redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete timer settings from Redis: %w", err)
	}
	return nil
}
