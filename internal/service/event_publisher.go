package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/pkg/kafka"
	"github.com/watcharin-dev/eventbook/pkg/logger"
)

// BookingEventPublisher emits booking lifecycle messages for downstream
// consumers. Publishing is best effort: the booking commits whether or not
// the message is delivered.
type BookingEventPublisher interface {
	PublishBookingEvent(ctx context.Context, eventType domain.BookingEventType, booking *domain.Booking)
}

// BookingMessage is the wire shape of a booking lifecycle message
type BookingMessage struct {
	Type            string    `json:"type"`
	BookingID       string    `json:"booking_id"`
	UserID          string    `json:"user_id"`
	EventID         string    `json:"event_id"`
	NumberOfTickets int       `json:"number_of_tickets"`
	TotalPrice      float64   `json:"total_price"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type kafkaBookingPublisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

// NewKafkaBookingPublisher creates a Kafka-backed booking publisher
func NewKafkaBookingPublisher(producer *kafka.Producer, topic string, log *logger.Logger) BookingEventPublisher {
	return &kafkaBookingPublisher{producer: producer, topic: topic, log: log}
}

func (p *kafkaBookingPublisher) PublishBookingEvent(ctx context.Context, eventType domain.BookingEventType, booking *domain.Booking) {
	msg := BookingMessage{
		Type:            string(eventType),
		BookingID:       booking.ID,
		UserID:          booking.UserID,
		EventID:         booking.EventID,
		NumberOfTickets: booking.NumberOfTickets,
		TotalPrice:      booking.TotalPrice,
		OccurredAt:      time.Now(),
	}

	value, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("failed to marshal booking message",
			zap.String("booking_id", booking.ID),
			zap.Error(err),
		)
		return
	}

	// keyed by event so consumers see per-event ordering
	p.producer.ProduceAsync(ctx, p.topic, []byte(booking.EventID), value, func(err error) {
		if err != nil {
			p.log.Error("failed to publish booking message",
				zap.String("booking_id", booking.ID),
				zap.String("type", string(eventType)),
				zap.Error(err),
			)
		}
	})
}

type noopBookingPublisher struct{}

// NewNoopBookingPublisher returns a publisher that drops all messages. It
// keeps the service wiring uniform when Kafka is disabled or unreachable.
func NewNoopBookingPublisher() BookingEventPublisher {
	return noopBookingPublisher{}
}

func (noopBookingPublisher) PublishBookingEvent(context.Context, domain.BookingEventType, *domain.Booking) {
}
