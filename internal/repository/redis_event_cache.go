package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/pkg/redis"
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

const defaultEventCacheTTL = 5 * time.Minute

// redisEventCache stores event JSON under a per-event key. Entries expire by
// TTL and are invalidated on every write that touches availability, so the
// cache can serve stale reads for at most the TTL window and never feeds the
// reservation path.
type redisEventCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisEventCache creates a Redis-backed event cache
func NewRedisEventCache(client *redis.Client, ttl time.Duration) EventCache {
	if ttl <= 0 {
		ttl = defaultEventCacheTTL
	}
	return &redisEventCache{client: client, ttl: ttl}
}

func eventCacheKey(id string) string {
	return fmt.Sprintf("event:%s", id)
}

func (c *redisEventCache) Get(ctx context.Context, id string) (*domain.Event, bool) {
	ctx, span := telemetry.StartSpan(ctx, "cache.event.Get")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	data, err := c.client.Client().Get(ctx, eventCacheKey(id)).Bytes()
	if err != nil {
		// cache misses and cache failures both fall through to the store
		span.SetAttributes(attribute.Bool("cache.hit", false))
		if !errors.Is(err, goredis.Nil) {
			span.RecordError(err)
		}
		return nil, false
	}

	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		span.RecordError(err)
		return nil, false
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &event, true
}

func (c *redisEventCache) Set(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "cache.event.Set")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", event.ID))

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := c.client.Client().Set(ctx, eventCacheKey(event.ID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to cache event: %w", err)
	}
	return nil
}

func (c *redisEventCache) Invalidate(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "cache.event.Invalidate")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	if err := c.client.Client().Del(ctx, eventCacheKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to invalidate event cache: %w", err)
	}
	return nil
}
