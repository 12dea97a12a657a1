package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/middleware"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/config"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/jwtutil"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/logger"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/metrics"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/response"
)

func main() {
	cfg, err := config.Load("api-gateway")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting API gateway...", cfg.LogFields()...)

	jwtUtil := jwtutil.NewJWTUtil(&cfg.JWT)

	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(cfg.ServiceName).Middleware())

	e.GET("/health", func(c echo.Context) error {
		return response.OK(c, echo.Map{"status": "healthy", "service": cfg.ServiceName})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Login, registration and refresh pass through unauthenticated; everything
	// else requires a valid access token whose claims become the identity
	// headers the downstream services trust
	authSkip := skipper(
		"/api/auth/register",
		"/api/auth/login",
		"/api/auth/refresh",
		"/api/auth/forgot-password",
		"/api/auth/reset-password",
	)
	mount(e, log, "/api/auth", cfg.Gateway.AuthServiceURL, authSkip, jwtUtil)
	mount(e, log, "/api/users", cfg.Gateway.UserServiceURL, nil, jwtUtil)
	mount(e, log, "/api/tenants", cfg.Gateway.TenantServiceURL, nil, jwtUtil)
	mount(e, log, "/api/projects", cfg.Gateway.ProjectServiceURL, nil, jwtUtil)
	mount(e, log, "/api/tasks", cfg.Gateway.TaskServiceURL, nil, jwtUtil)
	mount(e, log, "/api/notifications", cfg.Gateway.NotificationServiceURL, nil, jwtUtil)

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			log.Info("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
}

// mount proxies a path prefix to one downstream service. Authentication and
// identity injection run before the proxy so rejected requests never leave
// the gateway; paths matched by skip bypass both.
func mount(e *echo.Echo, log *zap.Logger, prefix, target string, skip echomiddleware.Skipper, jwtUtil *jwtutil.JWTUtil) {
	targetURL, err := url.Parse(target)
	if err != nil {
		log.Fatal("Invalid downstream target",
			zap.String("prefix", prefix),
			zap.String("target", target),
			zap.Error(err))
	}

	g := e.Group(prefix)
	if skip == nil {
		g.Use(middleware.JWTAuth(jwtUtil), injectIdentity())
	} else {
		g.Use(withSkipper(middleware.JWTAuth(jwtUtil), skip))
		g.Use(withSkipper(injectIdentity(), skip))
	}
	g.Use(echomiddleware.Proxy(echomiddleware.NewRoundRobinBalancer([]*echomiddleware.ProxyTarget{
		{URL: targetURL},
	})))
}

// injectIdentity copies the validated token claims into the headers the
// downstream services read. Client-supplied values are always overwritten so
// callers cannot impersonate another tenant or user.
func injectIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get("claims").(*jwtutil.UserClaims)
			if ok {
				c.Request().Header.Set(middleware.HeaderTenantID, strconv.FormatUint(uint64(claims.TenantID), 10))
				c.Request().Header.Set(middleware.HeaderUserID, strconv.FormatUint(uint64(claims.UserID), 10))
			}
			return next(c)
		}
	}
}

// skipper marks exact paths as exempt from the wrapped middleware
func skipper(paths ...string) echomiddleware.Skipper {
	exempt := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		exempt[p] = struct{}{}
	}
	return func(c echo.Context) bool {
		_, ok := exempt[c.Request().URL.Path]
		return ok
	}
}

// withSkipper bypasses the middleware for requests the skipper exempts
func withSkipper(f echo.MiddlewareFunc, skip echomiddleware.Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		wrapped := f(next)
		return func(c echo.Context) error {
			if skip(c) {
				return next(c)
			}
			return wrapped(c)
		}
	}
}
