package domain

import "errors"

// Domain errors
var (
	// Request validation
	ErrInvalidRequest = errors.New("invalid request")

	// Lookups
	ErrEventNotFound    = errors.New("event not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")

	// Booking ledger business rules
	ErrInsufficientCapacity = errors.New("not enough tickets available")
	ErrAlreadyCancelled     = errors.New("booking already cancelled")
	ErrDuplicateBooking     = errors.New("booking already exists for idempotency key")
	ErrEventHasBookings     = errors.New("event has bookings")

	// Store-layer outcomes surfaced after bounded retries
	ErrConflictExhausted = errors.New("concurrent update conflict, retries exhausted")
	ErrStoreUnavailable  = errors.New("store temporarily unavailable")

	// Auth
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)
