package metrics

import (
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

// BookingMetrics holds the ledger's instruments
type BookingMetrics struct {
	BookingsCreated    *telemetry.Counter
	BookingsCancelled  *telemetry.Counter
	CapacityRejections *telemetry.Counter
	ConflictExhausted  *telemetry.Counter
	ReservationLatency *telemetry.Histogram
}

// NewBookingMetrics registers the booking instruments
func NewBookingMetrics() (*BookingMetrics, error) {
	created, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "bookings_created_total",
		Description: "Number of bookings confirmed",
		Unit:        "{booking}",
	})
	if err != nil {
		return nil, err
	}

	cancelled, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "bookings_cancelled_total",
		Description: "Number of bookings cancelled",
		Unit:        "{booking}",
	})
	if err != nil {
		return nil, err
	}

	rejections, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "booking_capacity_rejections_total",
		Description: "Booking attempts rejected for insufficient capacity",
		Unit:        "{attempt}",
	})
	if err != nil {
		return nil, err
	}

	exhausted, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "booking_conflict_exhausted_total",
		Description: "Booking attempts that exhausted conflict retries",
		Unit:        "{attempt}",
	})
	if err != nil {
		return nil, err
	}

	latency, err := telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "booking_reservation_duration_seconds",
		Description: "Latency of the reservation transaction",
		Unit:        "s",
	})
	if err != nil {
		return nil, err
	}

	return &BookingMetrics{
		BookingsCreated:    created,
		BookingsCancelled:  cancelled,
		CapacityRejections: rejections,
		ConflictExhausted:  exhausted,
		ReservationLatency: latency,
	}, nil
}
