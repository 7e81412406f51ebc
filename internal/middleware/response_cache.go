package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/bookery/backend/internal/cache"
	"github.com/bookery/backend/internal/logger"
	"github.com/bookery/backend/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResponseCacheMiddleware caches successful GET responses with configurable TTL.
// Only caches 2xx responses. Adds X-Cache: HIT/MISS header for debugging.
// Cache key is: response:{path}:{query_string}:{user_id}
func ResponseCacheMiddleware(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != "GET" {
			c.Next()
			return
		}

		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			// Redis not available, skip caching
			c.Next()
			return
		}

		// User-specific caching for personalized endpoints
		userID := ""
		if user, ok := c.Get("user_id"); ok {
			if uid, ok := user.(string); ok {
				userID = uid
			}
		}

		cacheKey := generateCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery, userID)
		ctx := c.Request.Context()

		cachedData, err := redisClient.Get(ctx, cacheKey)
		if err == nil {
			metrics.RecordCacheHit("response_cache")
			c.Data(http.StatusOK, "application/json", []byte(cachedData))
			c.Header("X-Cache", "HIT")
			c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
			return
		}

		metrics.RecordCacheMiss("response_cache")

		writer := &cachedResponseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		if writer.statusCode >= 200 && writer.statusCode < 300 {
			bodyStr := writer.body.String()
			if bodyStr != "" {
				if err := redisClient.SetEx(ctx, cacheKey, bodyStr, ttl); err != nil {
					logger.Log.Debug("Failed to write response to cache",
						zap.String("key", cacheKey),
						zap.Error(err),
					)
				}
			}
		}

		c.Header("X-Cache", "MISS")
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
	}
}

// generateCacheKey creates a cache key from request path, query params, and user ID
func generateCacheKey(path, query, userID string) string {
	key := fmt.Sprintf("response:%s", path)

	if query != "" {
		key = fmt.Sprintf("%s:%s", key, query)
	}

	if userID != "" {
		key = fmt.Sprintf("%s:%s", key, userID)
	}

	return key
}

// cachedResponseWriter intercepts response writes to capture the response body
type cachedResponseWriter struct {
	gin.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// CacheInvalidationMiddleware invalidates cache on successful POST/PUT/DELETE requests.
// Use on mutation endpoints to clear related caches.
func CacheInvalidationMiddleware(invalidationPatterns ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "POST" && c.Request.Method != "PUT" && c.Request.Method != "DELETE" {
			return
		}

		if c.Writer.Status() < 200 || c.Writer.Status() >= 400 {
			return
		}

		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			return
		}

		ctx := c.Request.Context()

		for _, pattern := range invalidationPatterns {
			keys, err := redisClient.Keys(ctx, pattern)
			if err != nil {
				logger.Log.Debug("Failed to find cache keys for invalidation",
					zap.String("pattern", pattern),
					zap.Error(err),
				)
				continue
			}

			if len(keys) > 0 {
				if err := redisClient.Del(ctx, keys...); err != nil {
					logger.Log.Warn("Failed to invalidate cache",
						zap.Strings("keys", keys),
						zap.Error(err),
					)
				}
			}
		}
	}
}
