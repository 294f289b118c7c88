package domain

import (
	"strings"
	"time"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsValid checks if the status is a valid BookingStatus
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of BookingStatus
func (s BookingStatus) String() string {
	return string(s)
}

// Booking represents a confirmed reservation of tickets for an event.
// A booking is created in confirmed state and transitions to cancelled
// exactly once; there are no other transitions.
type Booking struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	EventID         string        `json:"event_id"`
	NumberOfTickets int           `json:"number_of_tickets"`
	// TotalPrice is fixed at creation; later event price changes do not
	// affect existing bookings.
	TotalPrice     float64       `json:"total_price"`
	Status         BookingStatus `json:"status"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	BookingDate    time.Time     `json:"booking_date"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Validate validates all booking fields
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrInvalidRequest
	}
	if strings.TrimSpace(b.UserID) == "" {
		return ErrInvalidRequest
	}
	if strings.TrimSpace(b.EventID) == "" {
		return ErrInvalidRequest
	}
	if b.NumberOfTickets < 1 {
		return ErrInvalidRequest
	}
	if b.TotalPrice < 0 {
		return ErrInvalidRequest
	}
	if !b.Status.IsValid() {
		return ErrInvalidRequest
	}
	return nil
}

// IsConfirmed reports whether the booking is active
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// IsCancelled reports whether the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// Cancel marks the booking as cancelled. Cancelling an already-cancelled
// booking is rejected, never a silent no-op.
func (b *Booking) Cancel() error {
	if b.IsCancelled() {
		return ErrAlreadyCancelled
	}
	now := time.Now()
	b.Status = BookingStatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

// BelongsToUser checks if the booking belongs to the specified user
func (b *Booking) BelongsToUser(userID string) bool {
	return b.UserID == userID
}

// BookingView is a booking joined with event and user summaries for display.
// It is produced by read-side queries only and never participates in the
// reservation path.
type BookingView struct {
	Booking
	EventTitle    string    `json:"event_title"`
	EventDate     time.Time `json:"event_date"`
	EventLocation string    `json:"event_location"`
	UserName      string    `json:"user_name"`
	UserEmail     string    `json:"user_email"`
}

// BookingEventType identifies a booking lifecycle message
type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "booking.created"
	BookingEventCancelled BookingEventType = "booking.cancelled"
)
