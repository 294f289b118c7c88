package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/internal/worker"
	"github.com/watcharin-dev/eventbook/pkg/config"
	"github.com/watcharin-dev/eventbook/pkg/database"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/redis"
)

// cache-warmer runs the availability sync loop as a standalone process so
// the Redis event cache stays warm independently of API traffic.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		ServiceName: cfg.App.Name + "-cache-warmer",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: 5,
		MinConns: 1,
	})
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := redis.NewClient(ctx, &redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	events := repository.NewPostgresEventRepository(db)
	cache := repository.NewRedisEventCache(redisClient, 0)

	w := worker.NewAvailabilitySyncWorker(events, cache, 30*time.Second, log)
	w.Start(ctx)
	log.Info("cache warmer started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()
	w.Stop()
}
