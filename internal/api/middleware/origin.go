package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// OriginCheck rejects state-changing cross-origin requests whose Origin
// header is not in the allow-list. Enabled in production only; requests
// without an Origin header (curl, server-to-server) pass through.
func OriginCheck(allowed []string, enabled bool) echo.MiddlewareFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		allowedSet[o] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !enabled || !stateChanging(c.Request().Method) {
				return next(c)
			}
			origin := c.Request().Header.Get("Origin")
			if origin == "" {
				return next(c)
			}
			if _, ok := allowedSet[origin]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "origin not allowed")
			}
			return next(c)
		}
	}
}

func stateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
