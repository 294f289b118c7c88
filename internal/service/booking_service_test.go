package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/pkg/logger"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.BookingEventType
}

func (p *capturingPublisher) PublishBookingEvent(_ context.Context, eventType domain.BookingEventType, _ *domain.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *capturingPublisher) published() []domain.BookingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.BookingEventType(nil), p.events...)
}

type bookingFixture struct {
	store     *repository.MemoryStore
	publisher *capturingPublisher
	service   BookingService
}

func newBookingFixture(t *testing.T, capacity int) *bookingFixture {
	t.Helper()

	store := repository.NewMemoryStore()
	publisher := &capturingPublisher{}
	svc := NewBookingService(
		store,
		repository.NewMemoryBookingRepository(store),
		store,
		nil,
		publisher,
		nil,
		logger.Get(),
		10,
	)

	event := &domain.Event{
		ID:               "event-1",
		Title:            "Go Meetup",
		Location:         "Bangkok",
		Date:             time.Now().Add(48 * time.Hour),
		Price:            25,
		Capacity:         capacity,
		TicketsAvailable: capacity,
	}
	require.NoError(t, store.Create(context.Background(), event))

	return &bookingFixture{store: store, publisher: publisher, service: svc}
}

func (f *bookingFixture) availability(t *testing.T) int {
	t.Helper()
	event, err := f.store.GetByID(context.Background(), "event-1")
	require.NoError(t, err)
	return event.TicketsAvailable
}

// checkLedger verifies that tickets sold equals the sum of confirmed
// booking tickets for the event.
func (f *bookingFixture) checkLedger(t *testing.T) {
	t.Helper()
	event, err := f.store.GetByID(context.Background(), "event-1")
	require.NoError(t, err)

	views, err := f.store.ListViewsByEvent(context.Background(), "event-1")
	require.NoError(t, err)

	confirmed := 0
	for _, v := range views {
		if v.IsConfirmed() {
			confirmed += v.NumberOfTickets
		}
	}
	assert.Equal(t, event.Capacity-event.TicketsAvailable, confirmed,
		"capacity accounting must balance confirmed bookings")
}

func TestBookingService_CreateBooking(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.service.CreateBooking(context.Background(), "user-1", &dto.CreateBookingRequest{
		EventID:         "event-1",
		NumberOfTickets: 3,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "confirmed", booking.Status)
	assert.Equal(t, 3, booking.NumberOfTickets)
	assert.Equal(t, 75.0, booking.TotalPrice)
	assert.Equal(t, 7, f.availability(t))
	assert.Equal(t, []domain.BookingEventType{domain.BookingEventCreated}, f.publisher.published())
	f.checkLedger(t)
}

func TestBookingService_CreateBooking_Validation(t *testing.T) {
	f := newBookingFixture(t, 10)

	tests := []struct {
		name string
		req  *dto.CreateBookingRequest
	}{
		{"missing event", &dto.CreateBookingRequest{NumberOfTickets: 1}},
		{"zero tickets", &dto.CreateBookingRequest{EventID: "event-1", NumberOfTickets: 0}},
		{"negative tickets", &dto.CreateBookingRequest{EventID: "event-1", NumberOfTickets: -2}},
		{"over per-booking limit", &dto.CreateBookingRequest{EventID: "event-1", NumberOfTickets: 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateBooking(context.Background(), "user-1", tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}

	// rejected requests must not touch availability
	assert.Equal(t, 10, f.availability(t))
	assert.Empty(t, f.publisher.published())
}

func TestBookingService_CreateBooking_EventNotFound(t *testing.T) {
	f := newBookingFixture(t, 10)

	_, err := f.service.CreateBooking(context.Background(), "user-1", &dto.CreateBookingRequest{
		EventID:         "no-such-event",
		NumberOfTickets: 1,
	})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestBookingService_CreateBooking_InsufficientCapacity(t *testing.T) {
	f := newBookingFixture(t, 2)

	_, err := f.service.CreateBooking(context.Background(), "user-1", &dto.CreateBookingRequest{
		EventID:         "event-1",
		NumberOfTickets: 3,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)

	assert.Equal(t, 2, f.availability(t))
	assert.Empty(t, f.publisher.published())
	f.checkLedger(t)
}

func TestBookingService_CreateBooking_IdempotentReplay(t *testing.T) {
	f := newBookingFixture(t, 10)

	req := &dto.CreateBookingRequest{
		EventID:         "event-1",
		NumberOfTickets: 2,
		IdempotencyKey:  "req-abc",
	}

	first, err := f.service.CreateBooking(context.Background(), "user-1", req)
	require.NoError(t, err)

	second, err := f.service.CreateBooking(context.Background(), "user-1", req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	// the replay must not reserve again
	assert.Equal(t, 8, f.availability(t))

	// a different user with the same key gets a fresh booking
	third, err := f.service.CreateBooking(context.Background(), "user-2", req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, 6, f.availability(t))
}

func TestBookingService_CancelBooking(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.service.CreateBooking(context.Background(), "user-1", &dto.CreateBookingRequest{
		EventID:         "event-1",
		NumberOfTickets: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, f.availability(t))

	cancelled, err := f.service.CancelBooking(context.Background(), "user-1", booking.ID)
	require.NoError(t, err)

	assert.Equal(t, "cancelled", cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 10, f.availability(t))
	assert.Equal(t,
		[]domain.BookingEventType{domain.BookingEventCreated, domain.BookingEventCancelled},
		f.publisher.published(),
	)
	f.checkLedger(t)
}

func TestBookingService_CancelBooking_Twice(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.service.CreateBooking(context.Background(), "user-1", &dto.CreateBookingRequest{
		EventID:         "event-1",
		NumberOfTickets: 2,
	})
	require.NoError(t, err)

	_, err = f.service.CancelBooking(context.Background(), "user-1", booking.ID)
	require.NoError(t, err)

	_, err = f.service.CancelBooking(context.Background(), "user-1", booking.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	// the second cancel must not release tickets again
	assert.Equal(t, 10, f.availability(t))
	f.checkLedger(t)
}

func TestBookingService_CancelBooking_WrongUser(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.service.CreateBooking(context.Background(), "user-1", &dto.CreateBookingRequest{
		EventID:         "event-1",
		NumberOfTickets: 1,
	})
	require.NoError(t, err)

	_, err = f.service.CancelBooking(context.Background(), "user-2", booking.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	assert.Equal(t, 9, f.availability(t))
}

func TestBookingService_ConcurrentBookings_NoOversell(t *testing.T) {
	const capacity = 30
	const workers = 120

	f := newBookingFixture(t, capacity)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	rejections := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.CreateBooking(context.Background(), fmt.Sprintf("user-%d", i), &dto.CreateBookingRequest{
				EventID:         "event-1",
				NumberOfTickets: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrInsufficientCapacity):
				rejections++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, capacity, successes)
	assert.Equal(t, workers-capacity, rejections)
	assert.Equal(t, 0, f.availability(t))
	f.checkLedger(t)
}

func TestBookingService_ConcurrentLastTicket_ExactlyOneSuccess(t *testing.T) {
	const workers = 20

	f := newBookingFixture(t, 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.CreateBooking(context.Background(), fmt.Sprintf("user-%d", i), &dto.CreateBookingRequest{
				EventID:         "event-1",
				NumberOfTickets: 1,
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one booking may win the last ticket")
	assert.Equal(t, 0, f.availability(t))
	f.checkLedger(t)
}

func TestBookingService_ConcurrentCreateAndCancel_LedgerBalances(t *testing.T) {
	const capacity = 40
	const workers = 60

	f := newBookingFixture(t, capacity)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			booking, err := f.service.CreateBooking(context.Background(), userID, &dto.CreateBookingRequest{
				EventID:         "event-1",
				NumberOfTickets: 1,
			})
			if err != nil {
				return
			}
			if i%2 == 0 {
				_, _ = f.service.CancelBooking(context.Background(), userID, booking.ID)
			}
		}(i)
	}
	wg.Wait()

	// at quiescence the accounting must balance whatever interleaving ran
	f.checkLedger(t)
}

func TestBookingService_GetBooking(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.service.CreateBooking(context.Background(), "user-1", &dto.CreateBookingRequest{
		EventID:         "event-1",
		NumberOfTickets: 2,
	})
	require.NoError(t, err)

	detail, err := f.service.GetBooking(context.Background(), "user-1", booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, detail.ID)
	assert.Equal(t, "Go Meetup", detail.EventTitle)

	// other users cannot see the booking
	_, err = f.service.GetBooking(context.Background(), "user-2", booking.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingService_ListUserBookings_Empty(t *testing.T) {
	f := newBookingFixture(t, 10)

	bookings, err := f.service.ListUserBookings(context.Background(), "user-without-bookings")
	require.NoError(t, err)
	assert.NotNil(t, bookings)
	assert.Empty(t, bookings)
}

func TestBookingService_ListEventBookings(t *testing.T) {
	f := newBookingFixture(t, 10)

	for i := 0; i < 3; i++ {
		_, err := f.service.CreateBooking(context.Background(), fmt.Sprintf("user-%d", i), &dto.CreateBookingRequest{
			EventID:         "event-1",
			NumberOfTickets: 1,
		})
		require.NoError(t, err)
	}

	bookings, err := f.service.ListEventBookings(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Len(t, bookings, 3)

	// unknown events list as empty, never as an error
	bookings, err = f.service.ListEventBookings(context.Background(), "no-such-event")
	require.NoError(t, err)
	assert.NotNil(t, bookings)
	assert.Empty(t, bookings)
}

func TestBookingService_ConcurrentSameKey_SingleReservation(t *testing.T) {
	const workers = 25

	f := newBookingFixture(t, 10)

	req := &dto.CreateBookingRequest{
		EventID:         "event-1",
		NumberOfTickets: 2,
		IdempotencyKey:  "req-racing",
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := map[string]struct{}{}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			booking, err := f.service.CreateBooking(context.Background(), "user-1", req)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			ids[booking.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// every racer observes the same booking and only one reservation lands
	assert.Len(t, ids, 1)
	assert.Equal(t, 8, f.availability(t))
	f.checkLedger(t)
}
