package repository

import (
	"context"

	"github.com/watcharin-dev/eventbook/internal/domain"
)

// EventFilter narrows event listings
type EventFilter struct {
	CategoryID string
	Search     string
	Offset     int
	Limit      int
}

// EventRepository provides access to event records
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, int, error)
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error

	// TryReserve atomically decrements availability by quantity when enough
	// tickets remain. Returns ErrInsufficientCapacity when they do not and
	// ErrEventNotFound when the event does not exist.
	TryReserve(ctx context.Context, eventID string, quantity int) error

	// Release returns quantity tickets to the pool, clamped at capacity.
	Release(ctx context.Context, eventID string, quantity int) error
}

// BookingRepository provides access to booking records
type BookingRepository interface {
	Insert(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, booking *domain.Booking) error

	GetViewByID(ctx context.Context, id string) (*domain.BookingView, error)
	ListViewsByUser(ctx context.Context, userID string) ([]*domain.BookingView, error)
	ListViewsByEvent(ctx context.Context, eventID string) ([]*domain.BookingView, error)
}

// LedgerRepository executes the paired booking-and-availability updates
// that keep capacity accounting consistent. Each call commits either both
// sides or neither.
type LedgerRepository interface {
	// CreateBooking reserves booking.NumberOfTickets on booking.EventID and
	// inserts the booking in a single transaction.
	CreateBooking(ctx context.Context, booking *domain.Booking) error

	// CancelBooking flips the booking to cancelled and releases its tickets
	// in a single transaction. Returns ErrAlreadyCancelled when the booking
	// is already cancelled.
	CancelBooking(ctx context.Context, booking *domain.Booking) error
}

// UserRepository provides access to user records
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CategoryRepository provides access to category records
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

// EventCache is a read-side cache over event records
type EventCache interface {
	Get(ctx context.Context, id string) (*domain.Event, bool)
	Set(ctx context.Context, event *domain.Event) error
	Invalidate(ctx context.Context, id string) error
}
