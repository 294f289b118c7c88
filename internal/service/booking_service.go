package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/metrics"
	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

// BookingService is the booking ledger: it owns every transition that moves
// ticket availability and guarantees the capacity accounting stays exact.
type BookingService interface {
	CreateBooking(ctx context.Context, userID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	CancelBooking(ctx context.Context, userID, bookingID string) (*dto.BookingResponse, error)
	GetBooking(ctx context.Context, userID, bookingID string) (*dto.BookingDetailResponse, error)
	ListUserBookings(ctx context.Context, userID string) ([]*dto.BookingDetailResponse, error)
	ListEventBookings(ctx context.Context, eventID string) ([]*dto.BookingDetailResponse, error)
}

type bookingService struct {
	ledger     repository.LedgerRepository
	bookings   repository.BookingRepository
	events     repository.EventRepository
	cache      repository.EventCache
	publisher  BookingEventPublisher
	metrics    *metrics.BookingMetrics
	log        *logger.Logger
	maxTickets int
}

// NewBookingService creates the booking ledger service. cache and metrics
// may be nil; publisher must not be (use the noop publisher instead).
func NewBookingService(
	ledger repository.LedgerRepository,
	bookings repository.BookingRepository,
	events repository.EventRepository,
	cache repository.EventCache,
	publisher BookingEventPublisher,
	m *metrics.BookingMetrics,
	log *logger.Logger,
	maxTickets int,
) BookingService {
	if maxTickets <= 0 {
		maxTickets = 10
	}
	return &bookingService{
		ledger:     ledger,
		bookings:   bookings,
		events:     events,
		cache:      cache,
		publisher:  publisher,
		metrics:    m,
		log:        log,
		maxTickets: maxTickets,
	}
}

// CreateBooking reserves tickets and records the booking as one unit. Either
// both the availability decrement and the booking row commit, or neither.
func (s *bookingService) CreateBooking(ctx context.Context, userID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.CreateBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("event.id", req.EventID),
		attribute.Int("tickets.quantity", req.NumberOfTickets),
	)

	if userID == "" || req.EventID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if req.NumberOfTickets < 1 || req.NumberOfTickets > s.maxTickets {
		return nil, fmt.Errorf("%w: number_of_tickets must be between 1 and %d",
			domain.ErrInvalidRequest, s.maxTickets)
	}

	// a retried request with the same key returns the original booking
	if req.IdempotencyKey != "" {
		existing, err := s.bookings.GetByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err == nil {
			span.SetAttributes(attribute.Bool("booking.idempotent_replay", true))
			return dto.BookingFromDomain(existing), nil
		}
		if !errors.Is(err, domain.ErrBookingNotFound) {
			return nil, err
		}
	}

	// price is read before the reservation; the total is fixed at booking
	// time even if the event price changes concurrently
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &domain.Booking{
		ID:              uuid.New().String(),
		UserID:          userID,
		EventID:         req.EventID,
		NumberOfTickets: req.NumberOfTickets,
		TotalPrice:      event.Price * float64(req.NumberOfTickets),
		Status:          domain.BookingStatusConfirmed,
		IdempotencyKey:  req.IdempotencyKey,
		BookingDate:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := booking.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.ledger.CreateBooking(ctx, booking)
	s.recordReservationLatency(ctx, time.Since(start))
	if err != nil {
		// a concurrent request with the same key can win between the probe
		// above and the insert; replay its booking instead of failing
		if errors.Is(err, domain.ErrDuplicateBooking) && req.IdempotencyKey != "" {
			existing, lookupErr := s.bookings.GetByIdempotencyKey(ctx, userID, req.IdempotencyKey)
			if lookupErr == nil {
				span.SetAttributes(attribute.Bool("booking.idempotent_replay", true))
				return dto.BookingFromDomain(existing), nil
			}
		}
		s.recordFailure(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reservation failed")
		return nil, err
	}

	s.afterWrite(ctx, booking, domain.BookingEventCreated)
	if s.metrics != nil {
		s.metrics.BookingsCreated.Add(ctx, 1)
	}

	s.log.Info("booking confirmed",
		zap.String("booking_id", booking.ID),
		zap.String("event_id", booking.EventID),
		zap.Int("tickets", booking.NumberOfTickets),
	)
	return dto.BookingFromDomain(booking), nil
}

// CancelBooking releases the booking's tickets exactly once. The terminal
// cancelled state makes repeated cancellations fail with ErrAlreadyCancelled.
func (s *bookingService) CancelBooking(ctx context.Context, userID, bookingID string) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.CancelBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("booking.id", bookingID),
	)

	if bookingID == "" {
		return nil, domain.ErrInvalidRequest
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.BelongsToUser(userID) {
		// hide other users' bookings rather than confirm they exist
		return nil, domain.ErrBookingNotFound
	}

	if err := booking.Cancel(); err != nil {
		return nil, err
	}

	if err := s.ledger.CancelBooking(ctx, booking); err != nil {
		s.recordFailure(ctx, err)
		span.RecordError(err)
		return nil, err
	}

	s.afterWrite(ctx, booking, domain.BookingEventCancelled)
	if s.metrics != nil {
		s.metrics.BookingsCancelled.Add(ctx, 1)
	}

	s.log.Info("booking cancelled",
		zap.String("booking_id", booking.ID),
		zap.String("event_id", booking.EventID),
		zap.Int("tickets_released", booking.NumberOfTickets),
	)
	return dto.BookingFromDomain(booking), nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID, bookingID string) (*dto.BookingDetailResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.GetBooking")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", bookingID))

	view, err := s.bookings.GetViewByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !view.BelongsToUser(userID) {
		return nil, domain.ErrBookingNotFound
	}
	return dto.BookingDetailFromView(view), nil
}

func (s *bookingService) ListUserBookings(ctx context.Context, userID string) ([]*dto.BookingDetailResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.ListUserBookings")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	views, err := s.bookings.ListViewsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.BookingDetailsFromViews(views), nil
}

func (s *bookingService) ListEventBookings(ctx context.Context, eventID string) ([]*dto.BookingDetailResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.ListEventBookings")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID))

	// unknown events yield an empty list, not an error
	views, err := s.bookings.ListViewsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return dto.BookingDetailsFromViews(views), nil
}

// afterWrite runs the non-transactional side effects of a committed ledger
// write. Failures here never fail the booking.
func (s *bookingService) afterWrite(ctx context.Context, booking *domain.Booking, eventType domain.BookingEventType) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, booking.EventID); err != nil {
			s.log.Warn("failed to invalidate event cache",
				zap.String("event_id", booking.EventID),
				zap.Error(err),
			)
		}
	}
	s.publisher.PublishBookingEvent(ctx, eventType, booking)
}

func (s *bookingService) recordReservationLatency(ctx context.Context, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ReservationLatency.Record(ctx, d.Seconds())
	}
}

func (s *bookingService) recordFailure(ctx context.Context, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrInsufficientCapacity):
		s.metrics.CapacityRejections.Add(ctx, 1)
	case errors.Is(err, domain.ErrConflictExhausted):
		s.metrics.ConflictExhausted.Add(ctx, 1)
	}
}
