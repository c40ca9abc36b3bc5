package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jiashuyu/belay/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware creates per-IP (unauthenticated) or per-user (authenticated)
// rate limiting. Sets standard rate limit response headers.
func RateLimitMiddleware(limiter ratelimit.Limiter, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var key string
			if uid, ok := c.Get("user_id").(int64); ok {
				key = fmt.Sprintf("rl:user:%d:%s", uid, c.Path())
			} else {
				key = fmt.Sprintf("rl:ip:%s:%s", c.RealIP(), c.Path())
			}

			res, err := limiter.Allow(c.Request().Context(), key, limit, window)
			if err != nil {
				// Fail open: a limiter outage must not take the API down.
				slog.Warn("rate limiter unavailable", "error", err, "key", key)
				return next(c)
			}

			resetAt := time.Now().Add(res.ResetAfter).Unix()

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))

			if !res.Allowed {
				retryAfterSec := int64((res.ResetAfter + time.Second - 1) / time.Second) // round up
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
				return Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, please try again later")
			}

			return next(c)
		}
	}
}
