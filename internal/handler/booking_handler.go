package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/middleware"
	"github.com/watcharin-dev/eventbook/internal/service"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/response"
)

// BookingHandler exposes the booking ledger over HTTP
type BookingHandler struct {
	bookings service.BookingService
	log      *logger.Logger
}

// NewBookingHandler creates a booking handler
func NewBookingHandler(bookings service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, log: log}
}

// RegisterRoutes mounts the booking routes onto the router group
func (h *BookingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.Create)
		bookings.GET("/:id", h.Get)
		bookings.PUT("/:id/cancel", h.Cancel)
		bookings.GET("/user/my-bookings", h.ListMine)
		bookings.GET("/event/:eventId", h.ListByEvent)
	}
}

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, booking)
}

// Get handles GET /api/v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	booking, err := h.bookings.GetBooking(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, booking)
}

// Cancel handles PUT /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	userID := middleware.GetUserID(c)

	booking, err := h.bookings.CancelBooking(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, booking)
}

// ListMine handles GET /api/v1/bookings/user/my-bookings
func (h *BookingHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)

	bookings, err := h.bookings.ListUserBookings(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, bookings)
}

// ListByEvent handles GET /api/v1/bookings/event/:eventId
func (h *BookingHandler) ListByEvent(c *gin.Context) {
	bookings, err := h.bookings.ListEventBookings(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, bookings)
}

// handleError maps domain errors onto HTTP status codes. The ladder is
// ordered from most to least specific.
func (h *BookingHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, domain.ErrBookingNotFound):
		response.NotFound(c, "booking not found")
	case errors.Is(err, domain.ErrInsufficientCapacity):
		response.Conflict(c, "INSUFFICIENT_CAPACITY", "not enough tickets available")
	case errors.Is(err, domain.ErrAlreadyCancelled):
		response.Conflict(c, "ALREADY_CANCELLED", "booking already cancelled")
	case errors.Is(err, domain.ErrDuplicateBooking):
		response.Conflict(c, "DUPLICATE_BOOKING", "a booking for this idempotency key already exists")
	case errors.Is(err, domain.ErrConflictExhausted):
		// retryable by the client, so it maps with the unavailable class
		response.Error(c, http.StatusServiceUnavailable, "CONFLICT_EXHAUSTED", "booking conflicted with concurrent updates, please retry")
	case errors.Is(err, domain.ErrStoreUnavailable):
		response.Unavailable(c, "service temporarily unavailable, please retry")
	default:
		h.log.Error("unhandled booking error", zap.Error(err))
		response.InternalError(c)
	}
}
