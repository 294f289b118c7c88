package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/pkg/database"
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

type postgresEventRepository struct {
	db *database.PostgresDB
}

// NewPostgresEventRepository creates a PostgreSQL-backed event repository
func NewPostgresEventRepository(db *database.PostgresDB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, title, description, category_id, date, location, price,
	capacity, tickets_available, image_url, organizer_id, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.CategoryID, &e.Date, &e.Location,
		&e.Price, &e.Capacity, &e.TicketsAvailable, &e.ImageURL, &e.OrganizerID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *postgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.event.Create")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", event.ID))

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Pool().Exec(ctx, query,
		event.ID, event.Title, event.Description, event.CategoryID, event.Date,
		event.Location, event.Price, event.Capacity, event.TicketsAvailable,
		event.ImageURL, event.OrganizerID, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.event.GetByID")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (r *postgresEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.event.List")
	defer span.End()

	where := " WHERE 1=1"
	args := []any{}
	argn := 0

	if filter.CategoryID != "" {
		argn++
		where += fmt.Sprintf(" AND category_id = $%d", argn)
		args = append(args, filter.CategoryID)
	}
	if filter.Search != "" {
		argn++
		where += fmt.Sprintf(" AND (title ILIKE $%d OR location ILIKE $%d)", argn, argn)
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM events" + where
	if err := r.db.Pool().QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := "SELECT " + eventColumns + " FROM events" + where + " ORDER BY date ASC"
	if filter.Limit > 0 {
		argn++
		query += fmt.Sprintf(" LIMIT $%d", argn)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		argn++
		query += fmt.Sprintf(" OFFSET $%d", argn)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			span.RecordError(err)
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to read events: %w", err)
	}

	span.SetAttributes(attribute.Int("events.count", len(events)))
	return events, total, nil
}

func (r *postgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.event.Update")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", event.ID))

	query := `
		UPDATE events
		SET title = $2, description = $3, category_id = $4, date = $5,
			location = $6, price = $7, image_url = $8, updated_at = $9
		WHERE id = $1`

	tag, err := r.db.Pool().Exec(ctx, query,
		event.ID, event.Title, event.Description, event.CategoryID, event.Date,
		event.Location, event.Price, event.ImageURL, event.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *postgresEventRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.event.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", id))

	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrEventHasBookings
		}
		span.RecordError(err)
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// TryReserve decrements availability only when enough tickets remain. The
// conditional UPDATE is the single point that prevents overselling; when it
// matches no rows we distinguish a missing event from exhausted capacity.
func (r *postgresEventRepository) TryReserve(ctx context.Context, eventID string, quantity int) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.event.TryReserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", eventID),
		attribute.Int("tickets.quantity", quantity),
	)

	return tryReserve(ctx, r.db.Pool(), eventID, quantity)
}

func (r *postgresEventRepository) Release(ctx context.Context, eventID string, quantity int) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.event.Release")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", eventID),
		attribute.Int("tickets.quantity", quantity),
	)

	return release(ctx, r.db.Pool(), eventID, quantity)
}

// execer covers both pgxpool.Pool and pgx.Tx so the ledger repository can
// reuse the same reserve and release statements inside a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func tryReserve(ctx context.Context, ex execer, eventID string, quantity int) error {
	tag, err := ex.Exec(ctx, `
		UPDATE events
		SET tickets_available = tickets_available - $2, updated_at = NOW()
		WHERE id = $1 AND tickets_available >= $2`,
		eventID, quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to reserve tickets: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := ex.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check event existence: %w", err)
		}
		if !exists {
			return domain.ErrEventNotFound
		}
		return domain.ErrInsufficientCapacity
	}
	return nil
}

func release(ctx context.Context, ex execer, eventID string, quantity int) error {
	tag, err := ex.Exec(ctx, `
		UPDATE events
		SET tickets_available = LEAST(capacity, tickets_available + $2), updated_at = NOW()
		WHERE id = $1`,
		eventID, quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to release tickets: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
