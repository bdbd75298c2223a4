package service

import (
	"context"
	"encoding/json"
	"time"

	"visa-status-service/internal/common/database"
	"visa-status-service/internal/common/logger"
	"visa-status-service/internal/models"
)

// ResponseCache memoizes assembled status responses in Redis for a
// short TTL. It is best effort: a cache failure is logged and the
// request proceeds as if there were no cache.
type ResponseCache struct {
	db     *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewResponseCache(db *database.RedisClient, ttl time.Duration, log logger.Logger) *ResponseCache {
	return &ResponseCache{
		db:     db,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "response-cache"}),
	}
}

func (c *ResponseCache) Get(ctx context.Context, key string) (*models.StatusResponse, bool) {
	raw, err := c.db.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var resp models.StatusResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		c.logger.WithError(err).Warn("corrupt cache entry dropped", map[string]interface{}{"key": key})
		_ = c.db.Del(ctx, key)
		return nil, false
	}
	return &resp, true
}

func (c *ResponseCache) Set(ctx context.Context, key string, resp *models.StatusResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.db.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.WithError(err).Warn("cache write failed", map[string]interface{}{"key": key})
	}
}
