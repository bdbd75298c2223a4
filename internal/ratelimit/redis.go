package ratelimit

import (
	"context"
	"fmt"

	"visa-status-service/internal/common/database"
	"visa-status-service/internal/common/logger"
)

// RedisLimiter is a fixed-window counter limiter backed by Redis, so
// quotas hold across replicas. Each (client, endpoint) window is one
// key: INCR then EXPIRE on first hit.
//
// Redis errors fail open: admission control protects downstream
// resources, it must not become an availability dependency.
type RedisLimiter struct {
	db     *database.RedisClient
	quotas Quotas
	logger logger.Logger
}

func NewRedisLimiter(db *database.RedisClient, quotas Quotas, log logger.Logger) *RedisLimiter {
	return &RedisLimiter{
		db:     db,
		quotas: quotas,
		logger: log.WithFields(map[string]interface{}{"component": "ratelimit"}),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, clientKey, endpoint string) bool {
	quota, ok := l.quotas[endpoint]
	if !ok || quota.Requests <= 0 {
		return true
	}

	key := fmt.Sprintf("ratelimit:%s:%s", endpoint, clientKey)
	rdb := l.db.GetClient()

	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		l.logger.WithError(err).Warn("rate limit check failed, admitting request", map[string]interface{}{
			"endpoint": endpoint,
		})
		return true
	}

	if count == 1 {
		if err := rdb.Expire(ctx, key, quota.WindowDuration()).Err(); err != nil {
			l.logger.WithError(err).Warn("rate limit window expire failed", map[string]interface{}{
				"endpoint": endpoint,
			})
		}
	}

	return count <= int64(quota.Requests)
}
