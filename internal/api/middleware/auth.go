package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Claims is the identity extracted from a validated bearer token.
type Claims struct {
	UserID string
	Email  string
}

// TokenParser validates an access token and returns its claims.
type TokenParser func(token string) (Claims, error)

// Auth validates the bearer access token and injects claims into context.
func Auth(parse TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := bearerClaims(c, parse)
			if err != nil {
				return err
			}
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			return next(c)
		}
	}
}

// OptionalAuth injects claims when a valid bearer token is present but lets
// anonymous requests through. Used by logout, where the body token alone is
// enough.
func OptionalAuth(parse TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" {
				if claims, err := bearerClaims(c, parse); err == nil {
					c.Set("user_id", claims.UserID)
					c.Set("email", claims.Email)
				}
			}
			return next(c)
		}
	}
}

func bearerClaims(c echo.Context, parse TokenParser) (Claims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims, err := parse(parts[1])
	if err != nil {
		return Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return claims, nil
}
