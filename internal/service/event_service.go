package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

// EventService manages the event catalog
type EventService interface {
	CreateEvent(ctx context.Context, organizerID string, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	GetEvent(ctx context.Context, id string) (*dto.EventResponse, error)
	ListEvents(ctx context.Context, query *dto.ListEventsQuery) (*dto.EventListResponse, error)
	UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	DeleteEvent(ctx context.Context, id string) error
}

type eventService struct {
	events repository.EventRepository
	cache  repository.EventCache
	log    *logger.Logger
}

// NewEventService creates the event catalog service. cache may be nil.
func NewEventService(events repository.EventRepository, cache repository.EventCache, log *logger.Logger) EventService {
	return &eventService{events: events, cache: cache, log: log}
}

// CreateEvent publishes a new event with availability equal to capacity.
func (s *eventService) CreateEvent(ctx context.Context, organizerID string, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.CreateEvent")
	defer span.End()

	now := time.Now()
	event := &domain.Event{
		ID:               uuid.New().String(),
		Title:            req.Title,
		Description:      req.Description,
		CategoryID:       req.CategoryID,
		Date:             req.Date,
		Location:         req.Location,
		Price:            req.Price,
		Capacity:         req.Capacity,
		TicketsAvailable: req.Capacity,
		ImageURL:         req.ImageURL,
		OrganizerID:      organizerID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.events.Create(ctx, event); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.log.Info("event created",
		zap.String("event_id", event.ID),
		zap.String("title", event.Title),
		zap.Int("capacity", event.Capacity),
	)
	return dto.EventFromDomain(event), nil
}

// GetEvent reads through the cache. Cached availability can lag the ledger
// by at most the cache TTL; the reservation path never consults it.
func (s *eventService) GetEvent(ctx context.Context, id string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.GetEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	if id == "" {
		return nil, domain.ErrInvalidRequest
	}

	if s.cache != nil {
		if event, ok := s.cache.Get(ctx, id); ok {
			return dto.EventFromDomain(event), nil
		}
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, event); err != nil {
			s.log.Warn("failed to cache event", zap.String("event_id", id), zap.Error(err))
		}
	}
	return dto.EventFromDomain(event), nil
}

func (s *eventService) ListEvents(ctx context.Context, query *dto.ListEventsQuery) (*dto.EventListResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.ListEvents")
	defer span.End()

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	events, total, err := s.events.List(ctx, repository.EventFilter{
		CategoryID: query.CategoryID,
		Search:     query.Search,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &dto.EventListResponse{
		Events:   dto.EventsFromDomain(events),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// UpdateEvent changes descriptive fields only. Capacity and availability are
// immutable here; availability moves exclusively through the booking ledger.
func (s *eventService) UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.UpdateEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.CategoryID != nil {
		event.CategoryID = *req.CategoryID
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.Price != nil {
		event.Price = *req.Price
	}
	if req.ImageURL != nil {
		event.ImageURL = *req.ImageURL
	}
	event.UpdatedAt = time.Now()

	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.invalidate(ctx, id)
	return dto.EventFromDomain(event), nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.DeleteEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Info("event deleted", zap.String("event_id", id))
	return nil
}

func (s *eventService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("failed to invalidate event cache", zap.String("event_id", id), zap.Error(err))
	}
}
