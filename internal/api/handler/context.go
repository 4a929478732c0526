package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxUserID extracts the user identity injected by the Auth middleware and
// fast-fails before any service call when the middleware did not run.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

// ctxOptionalUserID returns the authenticated user id, or empty when the
// request is anonymous.
func ctxOptionalUserID(c echo.Context) string {
	userID, _ := c.Get("user_id").(string)
	return userID
}
