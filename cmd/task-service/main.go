package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/middleware"
	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/internal/task"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/config"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/database"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/logger"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/metrics"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/response"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/validation"
)

func main() {
	cfg, err := config.Load("task-service")
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
	log.Info("Starting task service...", cfg.LogFields()...)

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db, &model.Task{}); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	taskSvc := task.NewService(db)
	taskHandler := task.NewHandler(taskSvc)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(cfg.ServiceName).Middleware())
	e.Use(middleware.ContextTimeout(cfg.Server.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return response.OK(c, echo.Map{"status": "healthy", "service": cfg.ServiceName})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	tasks := e.Group("/api/tasks")
	tasks.Use(middleware.TenantContext())
	taskHandler.Register(tasks)

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
	if err := database.Close(db); err != nil {
		log.Error("Database close error", zap.Error(err))
	}
}
