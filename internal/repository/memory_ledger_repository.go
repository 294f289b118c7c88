package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/watcharin-dev/eventbook/internal/domain"
)

// MemoryStore is an in-memory implementation of the event, booking, and
// ledger repositories. It mirrors the transactional guarantees of the
// Postgres implementation with a single mutex, which makes it the fixture
// for concurrency tests and local development without a database.
type MemoryStore struct {
	mu       sync.Mutex
	events   map[string]*domain.Event
	bookings map[string]*domain.Booking
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]*domain.Event),
		bookings: make(map[string]*domain.Booking),
	}
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func copyBooking(b *domain.Booking) *domain.Booking {
	c := *b
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

// --- EventRepository ---

func (s *MemoryStore) Create(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = copyEvent(event)
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (s *MemoryStore) List(ctx context.Context, filter EventFilter) ([]*domain.Event, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*domain.Event, 0)
	for _, e := range s.events {
		if filter.CategoryID != "" && e.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(e.Title), q) &&
				!strings.Contains(strings.ToLower(e.Location), q) {
				continue
			}
		}
		matched = append(matched, copyEvent(e))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *MemoryStore) Update(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.events[event.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	updated := copyEvent(event)
	// availability moves only through the ledger
	updated.Capacity = cur.Capacity
	updated.TicketsAvailable = cur.TicketsAvailable
	s.events[event.ID] = updated
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	// bookings reference the event, matching the SQL foreign key
	for _, b := range s.bookings {
		if b.EventID == id {
			return domain.ErrEventHasBookings
		}
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) TryReserve(ctx context.Context, eventID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryReserveLocked(eventID, quantity)
}

func (s *MemoryStore) Release(ctx context.Context, eventID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(eventID, quantity)
}

func (s *MemoryStore) tryReserveLocked(eventID string, quantity int) error {
	e, ok := s.events[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if e.TicketsAvailable < quantity {
		return domain.ErrInsufficientCapacity
	}
	e.TicketsAvailable -= quantity
	e.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) releaseLocked(eventID string, quantity int) error {
	e, ok := s.events[eventID]
	if !ok {
		return domain.ErrEventNotFound
	}
	e.TicketsAvailable += quantity
	if e.TicketsAvailable > e.Capacity {
		e.TicketsAvailable = e.Capacity
	}
	e.UpdatedAt = time.Now()
	return nil
}

// --- BookingRepository ---

func (s *MemoryStore) Insert(ctx context.Context, booking *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (s *MemoryStore) GetBookingByID(ctx context.Context, id string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (s *MemoryStore) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.UserID == userID && b.IdempotencyKey == key && key != "" {
			return copyBooking(b), nil
		}
	}
	return nil, domain.ErrBookingNotFound
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateStatusLocked(booking)
}

func (s *MemoryStore) updateStatusLocked(booking *domain.Booking) error {
	cur, ok := s.bookings[booking.ID]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if cur.Status == domain.BookingStatusCancelled {
		return domain.ErrAlreadyCancelled
	}
	s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (s *MemoryStore) GetViewByID(ctx context.Context, id string) (*domain.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return s.viewLocked(b), nil
}

func (s *MemoryStore) ListViewsByUser(ctx context.Context, userID string) ([]*domain.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]*domain.BookingView, 0)
	for _, b := range s.bookings {
		if b.UserID == userID {
			views = append(views, s.viewLocked(b))
		}
	}
	sortViews(views)
	return views, nil
}

func (s *MemoryStore) ListViewsByEvent(ctx context.Context, eventID string) ([]*domain.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]*domain.BookingView, 0)
	for _, b := range s.bookings {
		if b.EventID == eventID {
			views = append(views, s.viewLocked(b))
		}
	}
	sortViews(views)
	return views, nil
}

func sortViews(views []*domain.BookingView) {
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
}

func (s *MemoryStore) viewLocked(b *domain.Booking) *domain.BookingView {
	v := &domain.BookingView{Booking: *copyBooking(b)}
	if e, ok := s.events[b.EventID]; ok {
		v.EventTitle = e.Title
		v.EventDate = e.Date
		v.EventLocation = e.Location
	}
	return v
}

// --- LedgerRepository ---

// CreateBooking reserves and inserts under one lock acquisition, so no
// interleaving can observe a decremented availability without the booking
// or vice versa. A non-empty idempotency key must be unique per user,
// mirroring the partial unique index of the SQL schema.
func (s *MemoryStore) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if booking.IdempotencyKey != "" {
		for _, b := range s.bookings {
			if b.UserID == booking.UserID && b.IdempotencyKey == booking.IdempotencyKey {
				return domain.ErrDuplicateBooking
			}
		}
	}
	if err := s.tryReserveLocked(booking.EventID, booking.NumberOfTickets); err != nil {
		return err
	}
	s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

// CancelBooking flips status and releases tickets under one lock acquisition.
func (s *MemoryStore) CancelBooking(ctx context.Context, booking *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateStatusLocked(booking); err != nil {
		return err
	}
	return s.releaseLocked(booking.EventID, booking.NumberOfTickets)
}

var (
	_ EventRepository  = (*MemoryStore)(nil)
	_ LedgerRepository = (*MemoryStore)(nil)
)

// memoryBookingRepository adapts MemoryStore to BookingRepository; the
// GetByID method name collides with the event side on the shared struct.
type memoryBookingRepository struct {
	store *MemoryStore
}

// NewMemoryBookingRepository exposes the store's booking side
func NewMemoryBookingRepository(store *MemoryStore) BookingRepository {
	return &memoryBookingRepository{store: store}
}

func (r *memoryBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	return r.store.Insert(ctx, booking)
}

func (r *memoryBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.store.GetBookingByID(ctx, id)
}

func (r *memoryBookingRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Booking, error) {
	return r.store.GetByIdempotencyKey(ctx, userID, key)
}

func (r *memoryBookingRepository) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	return r.store.UpdateStatus(ctx, booking)
}

func (r *memoryBookingRepository) GetViewByID(ctx context.Context, id string) (*domain.BookingView, error) {
	return r.store.GetViewByID(ctx, id)
}

func (r *memoryBookingRepository) ListViewsByUser(ctx context.Context, userID string) ([]*domain.BookingView, error) {
	return r.store.ListViewsByUser(ctx, userID)
}

func (r *memoryBookingRepository) ListViewsByEvent(ctx context.Context, eventID string) ([]*domain.BookingView, error) {
	return r.store.ListViewsByEvent(ctx, eventID)
}
