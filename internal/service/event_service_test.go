package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/pkg/logger"
)

// fakeEventCache records cache traffic for assertions
type fakeEventCache struct {
	entries     map[string]*domain.Event
	invalidated []string
}

func newFakeEventCache() *fakeEventCache {
	return &fakeEventCache{entries: map[string]*domain.Event{}}
}

func (c *fakeEventCache) Get(_ context.Context, id string) (*domain.Event, bool) {
	e, ok := c.entries[id]
	return e, ok
}

func (c *fakeEventCache) Set(_ context.Context, event *domain.Event) error {
	c.entries[event.ID] = event
	return nil
}

func (c *fakeEventCache) Invalidate(_ context.Context, id string) error {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func createTestEvent(t *testing.T, svc EventService, capacity int) *dto.EventResponse {
	t.Helper()
	event, err := svc.CreateEvent(context.Background(), "organizer-1", &dto.CreateEventRequest{
		Title:    "DevFest",
		Date:     time.Now().Add(72 * time.Hour),
		Location: "Chiang Mai",
		Price:    15,
		Capacity: capacity,
	})
	require.NoError(t, err)
	return event
}

func TestEventService_CreateEvent_AvailabilityEqualsCapacity(t *testing.T) {
	svc := NewEventService(repository.NewMemoryStore(), nil, logger.Get())

	event := createTestEvent(t, svc, 100)
	assert.Equal(t, 100, event.Capacity)
	assert.Equal(t, 100, event.TicketsAvailable)
	assert.Equal(t, 0, event.TicketsSold)
	assert.Equal(t, "organizer-1", event.OrganizerID)
}

func TestEventService_CreateEvent_Invalid(t *testing.T) {
	svc := NewEventService(repository.NewMemoryStore(), nil, logger.Get())

	_, err := svc.CreateEvent(context.Background(), "organizer-1", &dto.CreateEventRequest{
		Title:    "No capacity",
		Date:     time.Now(),
		Location: "Bangkok",
		Capacity: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestEventService_GetEvent_ReadThroughCache(t *testing.T) {
	store := repository.NewMemoryStore()
	cache := newFakeEventCache()
	svc := NewEventService(store, cache, logger.Get())

	event := createTestEvent(t, svc, 50)

	// first read misses the cache and fills it
	got, err := svc.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
	_, cached := cache.Get(context.Background(), event.ID)
	assert.True(t, cached)

	// second read is served from the cache even after the store changes
	require.NoError(t, store.Delete(context.Background(), event.ID))
	got, err = svc.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
}

func TestEventService_GetEvent_NotFound(t *testing.T) {
	svc := NewEventService(repository.NewMemoryStore(), nil, logger.Get())

	_, err := svc.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventService_UpdateEvent_InvalidatesCache(t *testing.T) {
	store := repository.NewMemoryStore()
	cache := newFakeEventCache()
	svc := NewEventService(store, cache, logger.Get())

	event := createTestEvent(t, svc, 50)
	_, err := svc.GetEvent(context.Background(), event.ID)
	require.NoError(t, err)

	newTitle := "DevFest 2026"
	updated, err := svc.UpdateEvent(context.Background(), event.ID, &dto.UpdateEventRequest{
		Title: &newTitle,
	})
	require.NoError(t, err)
	assert.Equal(t, "DevFest 2026", updated.Title)
	assert.Contains(t, cache.invalidated, event.ID)

	// untouched fields survive a partial update
	assert.Equal(t, event.Location, updated.Location)
	assert.Equal(t, event.Capacity, updated.Capacity)
}

func TestEventService_ListEvents_Pagination(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewEventService(store, nil, logger.Get())

	for i := 0; i < 5; i++ {
		createTestEvent(t, svc, 10)
	}

	page, err := svc.ListEvents(context.Background(), &dto.ListEventsQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Events, 2)
	assert.Equal(t, 5, page.Total)

	last, err := svc.ListEvents(context.Background(), &dto.ListEventsQuery{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, last.Events, 1)
}

func TestEventService_DeleteEvent(t *testing.T) {
	store := repository.NewMemoryStore()
	cache := newFakeEventCache()
	svc := NewEventService(store, cache, logger.Get())

	event := createTestEvent(t, svc, 10)
	require.NoError(t, svc.DeleteEvent(context.Background(), event.ID))

	_, err := svc.GetEvent(context.Background(), event.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.Contains(t, cache.invalidated, event.ID)
}
