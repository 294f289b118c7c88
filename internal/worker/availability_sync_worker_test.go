package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/pkg/logger"
)

type recordingCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Event
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]*domain.Event{}}
}

func (c *recordingCache) Get(_ context.Context, id string) (*domain.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

func (c *recordingCache) Set(_ context.Context, event *domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[event.ID] = event
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (c *recordingCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func TestAvailabilitySyncWorker_WarmsCacheOnStart(t *testing.T) {
	store := repository.NewMemoryStore()
	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, store.Create(context.Background(), &domain.Event{
			ID:               id,
			Title:            "Event " + id,
			Location:         "Bangkok",
			Date:             time.Now().Add(time.Hour),
			Capacity:         10,
			TicketsAvailable: 10,
		}))
	}

	cache := newRecordingCache()
	w := NewAvailabilitySyncWorker(store, cache, time.Hour, logger.Get())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// the startup sync runs before the first tick
	deadline := time.After(2 * time.Second)
	for cache.size() < 3 {
		select {
		case <-deadline:
			t.Fatalf("cache not warmed, have %d entries", cache.size())
		case <-time.After(10 * time.Millisecond):
		}
	}

	w.Stop()

	event, ok := cache.Get(context.Background(), "e2")
	require.True(t, ok)
	assert.Equal(t, 10, event.TicketsAvailable)
}

func TestAvailabilitySyncWorker_StopsOnContextCancel(t *testing.T) {
	store := repository.NewMemoryStore()
	cache := newRecordingCache()
	w := NewAvailabilitySyncWorker(store, cache, 10*time.Millisecond, logger.Get())

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
