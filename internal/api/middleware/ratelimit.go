package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ontoacademy/platform-api/internal/api/metrics"
)

// Limiter abstracts the fixed-window counter store (Redis).
type Limiter interface {
	Allow(ctx context.Context, route, caller string, limit int) (bool, error)
}

// RateLimit rejects callers that exceed limit requests per window on the
// given route group. Counter-store failures fail open: availability of the
// API is preferred over strict limiting.
func RateLimit(limiter Limiter, route string, limit int, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, err := limiter.Allow(c.Request().Context(), route, c.RealIP(), limit)
			if err != nil {
				log.Warn().Err(err).Str("route", route).Msg("rate limit check failed, allowing request")
				return next(c)
			}
			if !allowed {
				metrics.RateLimitRejectionsTotal.WithLabelValues(route).Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
