package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/handler"
	"github.com/watcharin-dev/eventbook/internal/metrics"
	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/internal/service"
	"github.com/watcharin-dev/eventbook/pkg/config"
	"github.com/watcharin-dev/eventbook/pkg/database"
	"github.com/watcharin-dev/eventbook/pkg/kafka"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/redis"
	"github.com/watcharin-dev/eventbook/pkg/retry"
)

// Container wires the application dependency graph
type Container struct {
	Config *config.Config
	Log    *logger.Logger

	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer

	EventRepo    repository.EventRepository
	BookingRepo  repository.BookingRepository
	LedgerRepo   repository.LedgerRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	EventCache   repository.EventCache

	AuthService     service.AuthService
	EventService    service.EventService
	BookingService  service.BookingService
	CategoryService service.CategoryService
	Publisher       service.BookingEventPublisher

	AuthHandler     *handler.AuthHandler
	EventHandler    *handler.EventHandler
	BookingHandler  *handler.BookingHandler
	CategoryHandler *handler.CategoryHandler
	HealthHandler   *handler.HealthHandler
}

// NewContainer builds the full dependency graph. Postgres is required;
// Redis and Kafka degrade to cacheless reads and a noop publisher.
func NewContainer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		MaxRetries:      3,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	c.DB = db

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
		log.Warn("redis unavailable, serving reads without cache", zap.Error(err))
	} else {
		c.Redis = redisClient
		c.EventCache = repository.NewRedisEventCache(redisClient, 0)
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		log.Warn("kafka unavailable, booking events will not be published", zap.Error(err))
		c.Publisher = service.NewNoopBookingPublisher()
	} else {
		c.Producer = producer
		c.Publisher = service.NewKafkaBookingPublisher(producer, cfg.Kafka.Topic, log)
	}

	c.EventRepo = repository.NewPostgresEventRepository(db)
	c.BookingRepo = repository.NewPostgresBookingRepository(db)
	c.UserRepo = repository.NewPostgresUserRepository(db)
	c.CategoryRepo = repository.NewPostgresCategoryRepository(db)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.Booking.StoreMaxRetries
	c.LedgerRepo = repository.NewPostgresLedgerRepository(db,
		repository.WithRetryConfig(retryCfg),
		repository.WithTimeout(cfg.Booking.StoreTimeout),
	)

	bookingMetrics, err := metrics.NewBookingMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to register booking metrics: %w", err)
	}

	c.AuthService = service.NewAuthService(c.UserRepo, cfg.JWT, log)
	c.EventService = service.NewEventService(c.EventRepo, c.EventCache, log)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.BookingService = service.NewBookingService(
		c.LedgerRepo,
		c.BookingRepo,
		c.EventRepo,
		c.EventCache,
		c.Publisher,
		bookingMetrics,
		log,
		cfg.Booking.MaxTicketsPerBooking,
	)

	c.AuthHandler = handler.NewAuthHandler(c.AuthService, log)
	c.EventHandler = handler.NewEventHandler(c.EventService, log)
	c.BookingHandler = handler.NewBookingHandler(c.BookingService, log)
	c.CategoryHandler = handler.NewCategoryHandler(c.CategoryService, log)
	c.HealthHandler = handler.NewHealthHandler(db, c.Redis)

	return c, nil
}

// Close releases all held connections in reverse dependency order
func (c *Container) Close() {
	if c.Producer != nil {
		c.Producer.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Log.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
