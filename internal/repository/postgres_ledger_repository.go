package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/pkg/database"
	"github.com/watcharin-dev/eventbook/pkg/retry"
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

// postgresLedgerRepository runs the paired availability-and-booking updates
// inside single transactions, retrying transient conflicts with backoff.
type postgresLedgerRepository struct {
	db          *database.PostgresDB
	retryConfig *retry.Config
	timeout     time.Duration
}

// LedgerOption configures the ledger repository
type LedgerOption func(*postgresLedgerRepository)

// WithRetryConfig overrides the conflict retry policy
func WithRetryConfig(cfg *retry.Config) LedgerOption {
	return func(r *postgresLedgerRepository) {
		r.retryConfig = cfg
	}
}

// WithTimeout bounds each ledger operation
func WithTimeout(d time.Duration) LedgerOption {
	return func(r *postgresLedgerRepository) {
		r.timeout = d
	}
}

// NewPostgresLedgerRepository creates the transactional booking ledger
func NewPostgresLedgerRepository(db *database.PostgresDB, opts ...LedgerOption) LedgerRepository {
	r := &postgresLedgerRepository{
		db:          db,
		retryConfig: retry.DefaultConfig(),
		timeout:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateBooking decrements availability and inserts the booking atomically.
// On any failure the transaction rolls back, leaving availability untouched.
func (r *postgresLedgerRepository) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.ledger.CreateBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.id", booking.ID),
		attribute.String("event.id", booking.EventID),
		attribute.Int("tickets.quantity", booking.NumberOfTickets),
	)

	return r.run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := tryReserve(ctx, tx, booking.EventID, booking.NumberOfTickets); err != nil {
			return err
		}
		return insertBooking(ctx, tx, booking)
	})
}

// CancelBooking flips the booking to cancelled and returns its tickets
// atomically. The guarded status update makes double cancellation lose the
// race cleanly instead of releasing twice.
func (r *postgresLedgerRepository) CancelBooking(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.ledger.CancelBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.id", booking.ID),
		attribute.String("event.id", booking.EventID),
	)

	return r.run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := updateBookingStatus(ctx, tx, booking); err != nil {
			return err
		}
		return release(ctx, tx, booking.EventID, booking.NumberOfTickets)
	})
}

// run executes fn inside a transaction with bounded retries. Transient
// failures (serialization conflicts, deadlocks, lost connections) are
// retried; domain outcomes pass through as permanent errors.
func (r *postgresLedgerRepository) run(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	result := retry.Do(ctx, r.retryConfig, func(ctx context.Context) error {
		opCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		err := r.inTx(opCtx, fn)
		if err == nil {
			return nil
		}
		if isDomainError(err) {
			return retry.Permanent(err)
		}
		if isUniqueViolation(err) {
			return retry.Permanent(fmt.Errorf("%w: %v", domain.ErrDuplicateBooking, err))
		}
		if isTransient(err) {
			return err
		}
		return retry.Permanent(fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
	})

	if result.Err == nil {
		return nil
	}
	if errors.Is(result.Err, retry.ErrMaxRetriesExceeded) {
		if isConflict(result.LastError) {
			return fmt.Errorf("%w: %v", domain.ErrConflictExhausted, result.LastError)
		}
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, result.LastError)
	}
	if errors.Is(result.Err, retry.ErrContextCanceled) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, ctx.Err())
	}
	return result.Err
}

func (r *postgresLedgerRepository) inTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrEventNotFound) ||
		errors.Is(err, domain.ErrBookingNotFound) ||
		errors.Is(err, domain.ErrInsufficientCapacity) ||
		errors.Is(err, domain.ErrAlreadyCancelled)
}

// isUniqueViolation reports a duplicate-key insert, which on the bookings
// table means a concurrent request already committed the same idempotency key.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isConflict reports whether the error is a serialization failure or
// deadlock, the two Postgres outcomes that a fresh transaction can resolve.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func isTransient(err error) bool {
	if isConflict(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return pgconn.SafeToRetry(err)
}
