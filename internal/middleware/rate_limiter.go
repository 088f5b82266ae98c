package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"agrilink/internal/cache"
	"agrilink/internal/response"
	"agrilink/internal/services"

	"go.uber.org/zap"
)

// RateLimiterConfig holds rate limiting configuration
type RateLimiterConfig struct {
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
}

// RateLimiter limits requests per client IP using the shared cache, so
// limits hold across instances when the cache is Redis-backed.
type RateLimiter struct {
	cache   cache.Cache
	config  *RateLimiterConfig
	builder *response.Builder
	logger  *zap.Logger
}

// NewRateLimiter creates a cache-backed rate limiter
func NewRateLimiter(c cache.Cache, config *RateLimiterConfig, builder *response.Builder, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{cache: c, config: config, builder: builder, logger: logger}
}

// Limit enforces the per-IP request ceiling
func (rl *RateLimiter) Limit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + clientIP(r)

			count, err := rl.cache.Increment(r.Context(), key, rl.config.Window)
			if err != nil {
				// Degrade open: a broken cache should not take the API down.
				rl.logger.Warn("Rate limit cache unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(rl.config.Requests) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.config.Requests))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

			if count > int64(rl.config.Requests) {
				rl.logger.Warn("Rate limit exceeded",
					zap.String("ip", clientIP(r)),
					zap.String("path", r.URL.Path),
					zap.Int64("count", count),
				)
				rl.builder.WriteError(w, services.NewRateLimitError(
					"Too many requests, please slow down",
					map[string]interface{}{"retry_after": rl.config.Window.String()},
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
