package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/middleware"
	"github.com/watcharin-dev/eventbook/internal/service"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/response"
)

// EventHandler exposes the event catalog over HTTP
type EventHandler struct {
	events service.EventService
	log    *logger.Logger
}

// NewEventHandler creates an event handler
func NewEventHandler(events service.EventService, log *logger.Logger) *EventHandler {
	return &EventHandler{events: events, log: log}
}

// RegisterPublicRoutes mounts the read-only event routes
func (h *EventHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	events := rg.Group("/events")
	{
		events.GET("", h.List)
		events.GET("/:id", h.Get)
	}
}

// RegisterProtectedRoutes mounts the event write routes
func (h *EventHandler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	events := rg.Group("/events")
	{
		events.POST("", h.Create)
		events.PUT("/:id", h.Update)
		events.DELETE("/:id", h.Delete)
	}
}

// Create handles POST /api/v1/events
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, event)
}

// Get handles GET /api/v1/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, event)
}

// List handles GET /api/v1/events
func (h *EventHandler) List(c *gin.Context) {
	var query dto.ListEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	events, err := h.events.ListEvents(c.Request.Context(), &query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, events)
}

// Update handles PUT /api/v1/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, event)
}

// Delete handles DELETE /api/v1/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *EventHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, domain.ErrEventHasBookings):
		response.Conflict(c, "EVENT_HAS_BOOKINGS", "event has bookings and cannot be deleted")
	case errors.Is(err, domain.ErrStoreUnavailable):
		response.Unavailable(c, "service temporarily unavailable, please retry")
	default:
		h.log.Error("unhandled event error", zap.Error(err))
		response.InternalError(c)
	}
}
