package domain

import (
	"strings"
	"time"
)

// Event represents a bookable event.
// Capacity is fixed at creation; TicketsAvailable moves only through the
// booking ledger's reserve/release operations and always stays within
// [0, Capacity].
type Event struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	CategoryID       string    `json:"category_id"`
	Date             time.Time `json:"date"`
	Location         string    `json:"location"`
	Price            float64   `json:"price"`
	Capacity         int       `json:"capacity"`
	TicketsAvailable int       `json:"tickets_available"`
	ImageURL         string    `json:"image_url,omitempty"`
	OrganizerID      string    `json:"organizer_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate validates event fields
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrInvalidRequest
	}
	if strings.TrimSpace(e.Location) == "" {
		return ErrInvalidRequest
	}
	if e.Price < 0 {
		return ErrInvalidRequest
	}
	if e.Capacity < 1 {
		return ErrInvalidRequest
	}
	if e.TicketsAvailable < 0 || e.TicketsAvailable > e.Capacity {
		return ErrInvalidRequest
	}
	return nil
}

// TicketsSold returns the number of tickets currently reserved
func (e *Event) TicketsSold() int {
	return e.Capacity - e.TicketsAvailable
}
