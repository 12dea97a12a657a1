package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/pkg/logger"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/response"
)

const (
	// HeaderTenantID carries the tenant scope for service-to-service calls
	HeaderTenantID = "x-tenant-id"
	// HeaderUserID carries the acting user for service-to-service calls
	HeaderUserID = "x-user-id"
)

// TenantContext requires the x-tenant-id and x-user-id headers and stores
// their parsed values on the context as "tenant_id" and "user_id".
//
// The gateway is trusted to have authenticated the caller and forwarded these
// headers; services do not cross-check them against token claims. That trust
// boundary comes from the original system and is preserved as-is.
func TenantContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			tenantID, err := parseHeaderUint(c, HeaderTenantID)
			if err != nil {
				log.Warn("Missing or invalid tenant header", zap.Error(err))
				return response.Error(c, http.StatusBadRequest, "missing or invalid x-tenant-id header")
			}

			userID, err := parseHeaderUint(c, HeaderUserID)
			if err != nil {
				log.Warn("Missing or invalid user header", zap.Error(err))
				return response.Error(c, http.StatusBadRequest, "missing or invalid x-user-id header")
			}

			c.Set("tenant_id", tenantID)
			c.Set("user_id", userID)

			return next(c)
		}
	}
}

func parseHeaderUint(c echo.Context, header string) (uint, error) {
	value, err := strconv.ParseUint(c.Request().Header.Get(header), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// TenantID reads the tenant scope set by TenantContext
func TenantID(c echo.Context) uint {
	id, _ := c.Get("tenant_id").(uint)
	return id
}

// UserID reads the acting user set by TenantContext or JWTAuth
func UserID(c echo.Context) uint {
	id, _ := c.Get("user_id").(uint)
	return id
}
