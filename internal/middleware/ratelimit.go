package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/khlin/ticket-registration/internal/config"
)

// PasswordRateLimit returns a fixed-window limiter for the password
// endpoints, keyed by client IP and route. It exists to slow down secret
// guessing, not to shape API traffic, so a plain INCR+EXPIRE window is
// enough. Redis unavailable (nil client or command error) means requests
// pass; availability wins over strictness here.
func PasswordRateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "rl:" + c.Path() + ":" + c.RealIP()
			ctx := c.Request().Context()

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, cfg.Window).Err()
			}
			if n > int64(cfg.Attempts) {
				ttl, _ := rdb.TTL(ctx, key).Result()
				if ttl < 0 {
					ttl = cfg.Window
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(ttl/time.Second)+1))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many attempts, slow down"})
			}
			return next(c)
		}
	}
}
