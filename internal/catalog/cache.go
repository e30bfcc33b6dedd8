package catalog

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	apperrors "uni-directory/internal/common/errors"
	"uni-directory/internal/common/logger"
	"uni-directory/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// ResponseCache keeps raw response bodies for the lifetime of one browsing
// session. Keys are namespaced by session and expire after ttl. Any Redis
// failure is logged and treated as a miss.
type ResponseCache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    logger.Logger
}

func NewResponseCache(client *redis.Client, sessionID string, ttl time.Duration, log logger.Logger) *ResponseCache {
	return &ResponseCache{
		client:    client,
		namespace: "unidir:" + sessionID + ":",
		ttl:       ttl,
		logger:    logger.OrNop(log).WithFields(map[string]interface{}{"component": "response-cache"}),
	}
}

func (c *ResponseCache) key(url string) string {
	sum := sha1.Sum([]byte(url))
	return c.namespace + hex.EncodeToString(sum[:])
}

// Get returns the cached body for url.
func (c *ResponseCache) Get(ctx context.Context, url string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.key(url)).Bytes()
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return val, true
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.warn(apperrors.NewCacheFailedError("get", err))
		return nil, false
	}
}

// Set stores body for url.
func (c *ResponseCache) Set(ctx context.Context, url string, body []byte) {
	if err := c.client.Set(ctx, c.key(url), body, c.ttl).Err(); err != nil {
		c.warn(apperrors.NewCacheFailedError("set", err))
	}
}

// Purge drops every entry of this session.
func (c *ResponseCache) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.namespace+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return apperrors.NewCacheFailedError("scan", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.NewCacheFailedError("del", err)
	}
	return nil
}

func (c *ResponseCache) warn(err *apperrors.StandardError) {
	c.logger.Warn("Response cache unavailable, fetching directly", map[string]interface{}{
		"errorCode": string(err.Code),
		"details":   err.Details,
	})
}
