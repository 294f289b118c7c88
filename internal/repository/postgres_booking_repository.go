package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/pkg/database"
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

type postgresBookingRepository struct {
	db *database.PostgresDB
}

// NewPostgresBookingRepository creates a PostgreSQL-backed booking repository
func NewPostgresBookingRepository(db *database.PostgresDB) BookingRepository {
	return &postgresBookingRepository{db: db}
}

const bookingColumns = `id, user_id, event_id, number_of_tickets, total_price,
	status, idempotency_key, booking_date, cancelled_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.EventID, &b.NumberOfTickets, &b.TotalPrice,
		&b.Status, &b.IdempotencyKey, &b.BookingDate, &b.CancelledAt,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *postgresBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.booking.Insert")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", booking.ID))

	return insertBooking(ctx, r.db.Pool(), booking)
}

func insertBooking(ctx context.Context, ex execer, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := ex.Exec(ctx, query,
		booking.ID, booking.UserID, booking.EventID, booking.NumberOfTickets,
		booking.TotalPrice, booking.Status, booking.IdempotencyKey,
		booking.BookingDate, booking.CancelledAt, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *postgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.booking.GetByID")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (r *postgresBookingRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.booking.GetByIdempotencyKey")
	defer span.End()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 AND idempotency_key = $2`

	booking, err := scanBooking(r.db.Pool().QueryRow(ctx, query, userID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get booking by idempotency key: %w", err)
	}
	return booking, nil
}

// UpdateStatus persists a status transition. The WHERE clause guards against
// racing cancellations: only a currently confirmed row can flip.
func (r *postgresBookingRepository) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.booking.UpdateStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.id", booking.ID),
		attribute.String("booking.status", booking.Status.String()),
	)

	return updateBookingStatus(ctx, r.db.Pool(), booking)
}

func updateBookingStatus(ctx context.Context, ex execer, booking *domain.Booking) error {
	tag, err := ex.Exec(ctx, `
		UPDATE bookings
		SET status = $2, cancelled_at = $3, updated_at = $4
		WHERE id = $1 AND status = 'confirmed'`,
		booking.ID, booking.Status, booking.CancelledAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var status domain.BookingStatus
		err := ex.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, booking.ID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check booking status: %w", err)
		}
		if status == domain.BookingStatusCancelled {
			return domain.ErrAlreadyCancelled
		}
		return domain.ErrBookingNotFound
	}
	return nil
}

const bookingViewQuery = `
	SELECT b.id, b.user_id, b.event_id, b.number_of_tickets, b.total_price,
		b.status, b.idempotency_key, b.booking_date, b.cancelled_at,
		b.created_at, b.updated_at,
		COALESCE(e.title, ''), COALESCE(e.date, b.booking_date), COALESCE(e.location, ''),
		COALESCE(u.name, ''), COALESCE(u.email, '')
	FROM bookings b
	LEFT JOIN events e ON e.id = b.event_id
	LEFT JOIN users u ON u.id = b.user_id`

func scanBookingView(row pgx.Row) (*domain.BookingView, error) {
	var v domain.BookingView
	err := row.Scan(
		&v.ID, &v.UserID, &v.EventID, &v.NumberOfTickets, &v.TotalPrice,
		&v.Status, &v.IdempotencyKey, &v.BookingDate, &v.CancelledAt,
		&v.CreatedAt, &v.UpdatedAt,
		&v.EventTitle, &v.EventDate, &v.EventLocation,
		&v.UserName, &v.UserEmail,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *postgresBookingRepository) GetViewByID(ctx context.Context, id string) (*domain.BookingView, error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.booking.GetViewByID")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	view, err := scanBookingView(r.db.Pool().QueryRow(ctx, bookingViewQuery+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get booking view: %w", err)
	}
	return view, nil
}

func (r *postgresBookingRepository) ListViewsByUser(ctx context.Context, userID string) ([]*domain.BookingView, error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.booking.ListViewsByUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return r.listViews(ctx, bookingViewQuery+` WHERE b.user_id = $1 ORDER BY b.created_at DESC`, userID)
}

func (r *postgresBookingRepository) ListViewsByEvent(ctx context.Context, eventID string) ([]*domain.BookingView, error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.booking.ListViewsByEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID))

	return r.listViews(ctx, bookingViewQuery+` WHERE b.event_id = $1 ORDER BY b.created_at DESC`, eventID)
}

// listViews returns an empty slice, never nil, when nothing matches.
func (r *postgresBookingRepository) listViews(ctx context.Context, query string, arg any) ([]*domain.BookingView, error) {
	rows, err := r.db.Pool().Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	views := make([]*domain.BookingView, 0)
	for rows.Next() {
		view, err := scanBookingView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking view: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return views, nil
}
