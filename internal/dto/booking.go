package dto

import (
	"time"

	"github.com/watcharin-dev/eventbook/internal/domain"
)

// CreateBookingRequest is the payload for booking tickets
type CreateBookingRequest struct {
	EventID         string `json:"event_id" binding:"required"`
	NumberOfTickets int    `json:"number_of_tickets" binding:"required,min=1"`
	// IdempotencyKey lets clients retry safely; resubmitting the same key
	// returns the original booking instead of reserving twice.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// BookingResponse is the booking shape returned by write operations
type BookingResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	EventID         string     `json:"event_id"`
	NumberOfTickets int        `json:"number_of_tickets"`
	TotalPrice      float64    `json:"total_price"`
	Status          string     `json:"status"`
	BookingDate     time.Time  `json:"booking_date"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// BookingDetailResponse is a booking enriched with event and user summaries
type BookingDetailResponse struct {
	BookingResponse
	EventTitle    string    `json:"event_title"`
	EventDate     time.Time `json:"event_date"`
	EventLocation string    `json:"event_location"`
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"user_email"`
}

// BookingFromDomain maps a domain booking to its response shape
func BookingFromDomain(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		EventID:         b.EventID,
		NumberOfTickets: b.NumberOfTickets,
		TotalPrice:      b.TotalPrice,
		Status:          b.Status.String(),
		BookingDate:     b.BookingDate,
		CancelledAt:     b.CancelledAt,
		CreatedAt:       b.CreatedAt,
	}
}

// BookingDetailFromView maps a read-side booking view to its response shape
func BookingDetailFromView(v *domain.BookingView) *BookingDetailResponse {
	return &BookingDetailResponse{
		BookingResponse: *BookingFromDomain(&v.Booking),
		EventTitle:      v.EventTitle,
		EventDate:       v.EventDate,
		EventLocation:   v.EventLocation,
		UserName:        v.UserName,
		UserEmail:       v.UserEmail,
	}
}

// BookingDetailsFromViews maps a slice of views, never returning nil
func BookingDetailsFromViews(views []*domain.BookingView) []*BookingDetailResponse {
	out := make([]*BookingDetailResponse, 0, len(views))
	for _, v := range views {
		out = append(out, BookingDetailFromView(v))
	}
	return out
}
