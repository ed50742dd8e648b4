package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/taskhive/taskhive/internal/config"
)

// RateLimit returns a fixed-window limiter keyed by client IP, intended
// for the auth endpoints where brute forcing is the concern.  The first
// request in a window creates a counter with the window's TTL; each
// request increments it; counts above the limit are rejected with 429
// and a Retry-After header.  With rate limiting disabled or Redis down,
// the middleware is a pass-through: availability wins over throttling.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("%s:%s", cfg.Prefix, c.RealIP())

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// Redis hiccup: let the request through.
				return next(c)
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, cfg.Window).Err()
			}
			if n > int64(cfg.Limit) {
				ttl, _ := rdb.TTL(ctx, key).Result()
				if ttl > 0 {
					c.Response().Header().Set("Retry-After",
						strconv.Itoa(int(ttl.Seconds())))
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
