package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// ContextTimeout puts a deadline on every request context. Services run all
// statements through db.WithContext, so the deadline bounds every query and
// transaction issued on behalf of the request.
func ContextTimeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
