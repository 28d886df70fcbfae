package middleware // package middleware contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecomstack/ecommerce-api/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the verified identity into the request context. Handlers on
// protected routes read it via c.Get("user_id") (uint64) and c.Get("role")
// (string).
//
// Verification failures all map to 401, but the body distinguishes an
// expired token from an invalid one: clients treat "token expired" as a
// cue to refresh, while anything else ends the session.
func JWTAuth(accessSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.VerifyAccessToken(accessSecret, raw)
			if err != nil {
				if errors.Is(err, utils.ErrExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}

// UserID reads the authenticated user id placed in context by JWTAuth.
// It returns 0 when the request is unauthenticated.
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}

// Role reads the authenticated role placed in context by JWTAuth.
func Role(c echo.Context) string {
	if v, ok := c.Get("role").(string); ok {
		return v
	}
	return ""
}
