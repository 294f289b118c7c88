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

type postgresCategoryRepository struct {
	db *database.PostgresDB
}

// NewPostgresCategoryRepository creates a PostgreSQL-backed category repository
func NewPostgresCategoryRepository(db *database.PostgresDB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

func (r *postgresCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	ctx, span := telemetry.StartSpan(ctx, "repository.category.Create")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", category.ID))

	query := `
		INSERT INTO categories (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Pool().Exec(ctx, query,
		category.ID, category.Name, category.Description, category.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (r *postgresCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.category.GetByID")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", id))

	var c domain.Category
	err := r.db.Pool().QueryRow(ctx,
		`SELECT id, name, description, created_at FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (r *postgresCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.category.List")
	defer span.End()

	rows, err := r.db.Pool().Query(ctx,
		`SELECT id, name, description, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return categories, nil
}
