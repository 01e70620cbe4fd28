package config

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimiterConfig limits mutation routes per caller using a token bucket of
// RateLimitRPS with RateLimitBurst. Callers are keyed by the authenticated ID
// set under callerKey, falling back to the client IP.
func (c *Config) RateLimiterConfig(callerKey string) middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(c.RateLimitRPS),
			Burst:     c.RateLimitBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			if id, ok := ctx.Get(callerKey).(string); ok && id != "" {
				return "caller:" + id, nil
			}
			return "ip:" + ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, echo.Map{
				"success": false,
				"error":   echo.Map{"kind": "Forbidden", "message": "could not identify caller", "retryable": false},
			})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, echo.Map{
				"success": false,
				"error":   echo.Map{"kind": "Unavailable", "message": "rate limit exceeded", "retryable": true},
			})
		},
	}
}
