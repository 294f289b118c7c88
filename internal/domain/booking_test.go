package domain

import (
	"errors"
	"testing"
	"time"
)

func validBooking() *Booking {
	now := time.Now()
	return &Booking{
		ID:              "booking-001",
		UserID:          "user-001",
		EventID:         "event-001",
		NumberOfTickets: 2,
		TotalPrice:      40,
		Status:          BookingStatusConfirmed,
		BookingDate:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestBookingStatus_IsValid(t *testing.T) {
	tests := []struct {
		status BookingStatus
		want   bool
	}{
		{BookingStatusConfirmed, true},
		{BookingStatusCancelled, true},
		{BookingStatus("pending"), false},
		{BookingStatus(""), false},
	}

	for _, tt := range tests {
		if got := tt.status.IsValid(); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestBooking_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *Booking)
		wantErr bool
	}{
		{"valid", func(b *Booking) {}, false},
		{"missing id", func(b *Booking) { b.ID = "" }, true},
		{"missing user", func(b *Booking) { b.UserID = " " }, true},
		{"missing event", func(b *Booking) { b.EventID = "" }, true},
		{"zero tickets", func(b *Booking) { b.NumberOfTickets = 0 }, true},
		{"negative tickets", func(b *Booking) { b.NumberOfTickets = -3 }, true},
		{"negative price", func(b *Booking) { b.TotalPrice = -1 }, true},
		{"unknown status", func(b *Booking) { b.Status = "pending" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(b)
			err := b.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBooking_Cancel(t *testing.T) {
	b := validBooking()

	if err := b.Cancel(); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if !b.IsCancelled() {
		t.Errorf("expected cancelled status, got %q", b.Status)
	}
	if b.CancelledAt == nil {
		t.Error("expected CancelledAt to be set")
	}

	// second cancel must be rejected, not absorbed
	if err := b.Cancel(); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestEvent_TicketsSold(t *testing.T) {
	e := &Event{Capacity: 10, TicketsAvailable: 7}
	if got := e.TicketsSold(); got != 3 {
		t.Errorf("TicketsSold() = %d, want 3", got)
	}
}

func TestEvent_Validate(t *testing.T) {
	base := func() *Event {
		return &Event{
			Title:            "Go Conference",
			Location:         "Bangkok",
			Price:            20,
			Capacity:         10,
			TicketsAvailable: 10,
		}
	}

	e := base()
	if err := e.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	e = base()
	e.TicketsAvailable = 11
	if err := e.Validate(); err == nil {
		t.Error("expected error when availability exceeds capacity")
	}

	e = base()
	e.Capacity = 0
	if err := e.Validate(); err == nil {
		t.Error("expected error for zero capacity")
	}
}
