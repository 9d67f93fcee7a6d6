package middleware

import (
	"context"
	"net/http"

	applogger "DiabScreen/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Allower decides whether a request identified by key may proceed.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects requests over the limit with 429. The key is the client IP
// prefixed with scope. Limiter failures let the request through and are logged.
func RateLimit(l *applogger.Logger, limiter Allower, scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			key := scope + ":" + c.RealIP()
			ok, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				if l != nil {
					l.Warn("rate limiter unavailable", applogger.String("key", key), applogger.Error(err))
				}
				return next(c)
			}
			if !ok {
				if l != nil {
					l.Warn("rate limited", applogger.String("key", key))
				}
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
					"data": []map[string]string{{
						"code":    "ERR_RATE_LIMITED",
						"message": "too many screening requests, retry later",
					}},
				})
			}
			return next(c)
		}
	}
}
