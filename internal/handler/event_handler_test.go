package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/pkg/logger"
)

type mockEventService struct {
	createFn func(ctx context.Context, organizerID string, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	getFn    func(ctx context.Context, id string) (*dto.EventResponse, error)
	listFn   func(ctx context.Context, query *dto.ListEventsQuery) (*dto.EventListResponse, error)
	updateFn func(ctx context.Context, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockEventService) CreateEvent(ctx context.Context, organizerID string, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	return m.createFn(ctx, organizerID, req)
}

func (m *mockEventService) GetEvent(ctx context.Context, id string) (*dto.EventResponse, error) {
	return m.getFn(ctx, id)
}

func (m *mockEventService) ListEvents(ctx context.Context, query *dto.ListEventsQuery) (*dto.EventListResponse, error) {
	return m.listFn(ctx, query)
}

func (m *mockEventService) UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	return m.updateFn(ctx, id, req)
}

func (m *mockEventService) DeleteEvent(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func setupEventRouter(svc *mockEventService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := NewEventHandler(svc, logger.Get())
	group := router.Group("/api/v1")
	h.RegisterPublicRoutes(group)
	h.RegisterProtectedRoutes(group)
	return router
}

func TestEventHandler_Get(t *testing.T) {
	svc := &mockEventService{
		getFn: func(_ context.Context, id string) (*dto.EventResponse, error) {
			assert.Equal(t, "event-1", id)
			return &dto.EventResponse{ID: id, Title: "Go Meetup"}, nil
		},
	}
	router := setupEventRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/event-1", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventHandler_Get_NotFound(t *testing.T) {
	svc := &mockEventService{
		getFn: func(context.Context, string) (*dto.EventResponse, error) {
			return nil, domain.ErrEventNotFound
		},
	}
	router := setupEventRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/missing", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventHandler_Delete(t *testing.T) {
	svc := &mockEventService{
		deleteFn: func(_ context.Context, id string) error {
			assert.Equal(t, "event-1", id)
			return nil
		},
	}
	router := setupEventRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/events/event-1", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEventHandler_Delete_WithBookings(t *testing.T) {
	svc := &mockEventService{
		deleteFn: func(context.Context, string) error {
			return domain.ErrEventHasBookings
		},
	}
	router := setupEventRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/events/event-1", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "EVENT_HAS_BOOKINGS", envelope.Error.Code)
}

func TestEventHandler_List_BadQuery(t *testing.T) {
	svc := &mockEventService{}
	router := setupEventRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?page_size=1000", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
