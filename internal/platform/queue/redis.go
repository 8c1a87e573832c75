package queue

import (
	"context"
	"fmt"

	"codele_backend/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis builds the shared Redis client used by the rate limiter and
// the generation-plan queue.
func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("queue.ConnectRedis ping: %w", err)
	}
	return rdb, nil
}
