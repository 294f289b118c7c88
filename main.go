package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/di"
	"github.com/watcharin-dev/eventbook/internal/middleware"
	"github.com/watcharin-dev/eventbook/pkg/config"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}); err != nil {
		log.Fatal("failed to init telemetry", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build container", zap.Error(err))
	}
	defer container.Close()

	router := buildRouter(cfg, container)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func buildRouter(cfg *config.Config, c *di.Container) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.App.Name))

	c.HealthHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	c.AuthHandler.RegisterPublicRoutes(v1)
	c.EventHandler.RegisterPublicRoutes(v1)
	c.CategoryHandler.RegisterPublicRoutes(v1)

	protected := router.Group("/api/v1")
	protected.Use(middleware.Auth(c.AuthService))
	c.AuthHandler.RegisterProtectedRoutes(protected)
	c.EventHandler.RegisterProtectedRoutes(protected)
	c.CategoryHandler.RegisterProtectedRoutes(protected)
	c.BookingHandler.RegisterRoutes(protected)

	return router
}
