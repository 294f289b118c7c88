package dto

import (
	"time"

	"github.com/watcharin-dev/eventbook/internal/domain"
)

// CreateEventRequest is the payload for publishing a new event
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Date        time.Time `json:"date" binding:"required"`
	Location    string    `json:"location" binding:"required"`
	Price       float64   `json:"price" binding:"min=0"`
	Capacity    int       `json:"capacity" binding:"required,min=1"`
	ImageURL    string    `json:"image_url"`
}

// UpdateEventRequest carries the mutable event fields. Capacity and
// availability are not updatable through this path; availability moves
// only through bookings.
type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	CategoryID  *string    `json:"category_id,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Price       *float64   `json:"price,omitempty" binding:"omitempty,min=0"`
	ImageURL    *string    `json:"image_url,omitempty"`
}

// ListEventsQuery captures list filters and pagination
type ListEventsQuery struct {
	CategoryID string `form:"category_id"`
	Search     string `form:"search"`
	Page       int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// EventResponse is the event shape returned to clients
type EventResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	CategoryID       string    `json:"category_id,omitempty"`
	Date             time.Time `json:"date"`
	Location         string    `json:"location"`
	Price            float64   `json:"price"`
	Capacity         int       `json:"capacity"`
	TicketsAvailable int       `json:"tickets_available"`
	TicketsSold      int       `json:"tickets_sold"`
	ImageURL         string    `json:"image_url,omitempty"`
	OrganizerID      string    `json:"organizer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// EventListResponse wraps a page of events
type EventListResponse struct {
	Events   []*EventResponse `json:"events"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int              `json:"total"`
}

// EventFromDomain maps a domain event to its response shape
func EventFromDomain(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		CategoryID:       e.CategoryID,
		Date:             e.Date,
		Location:         e.Location,
		Price:            e.Price,
		Capacity:         e.Capacity,
		TicketsAvailable: e.TicketsAvailable,
		TicketsSold:      e.TicketsSold(),
		ImageURL:         e.ImageURL,
		OrganizerID:      e.OrganizerID,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// EventsFromDomain maps a slice of events, never returning nil
func EventsFromDomain(events []*domain.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventFromDomain(e))
	}
	return out
}
