package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/pkg/jwtutil"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/logger"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/metrics"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/response"
)

// JWTAuth validates the bearer access token and stores its claims on the
// context under "claims", plus "user_id"/"email" for convenience.
func JWTAuth(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				metrics.RecordAuthError("missing_header")
				return response.Error(c, http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				metrics.RecordAuthError("invalid_header")
				return response.Error(c, http.StatusUnauthorized, "invalid authorization header format")
			}

			claims, err := jwtUtil.ValidateAccess(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				metrics.RecordAuthError("invalid_token")
				return response.Error(c, http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set("claims", claims)
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)

			return next(c)
		}
	}
}
