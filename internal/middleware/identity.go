package middleware

// identity.go holds the helpers that tell requests apart: the caller id
// used in rate-limit keys and the per-request id attached to logs.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtimes/internal/utils"
)

// currentUserID returns the subject stored by JWTAuth, or "anon" for
// public callers.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}

// RequestID tags every request with an X-Request-ID, reusing the one the
// client sent when present.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = utils.NewID()
			}
			c.Set("request_id", id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}
