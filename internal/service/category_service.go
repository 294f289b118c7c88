package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

// CategoryService manages event categories
type CategoryService interface {
	CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	GetCategory(ctx context.Context, id string) (*dto.CategoryResponse, error)
	ListCategories(ctx context.Context) ([]*dto.CategoryResponse, error)
}

type categoryService struct {
	categories repository.CategoryRepository
}

// NewCategoryService creates the category service
func NewCategoryService(categories repository.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.category.CreateCategory")
	defer span.End()

	category := &domain.Category{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, category); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return dto.CategoryFromDomain(category), nil
}

func (s *categoryService) GetCategory(ctx context.Context, id string) (*dto.CategoryResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.category.GetCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", id))

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.CategoryFromDomain(category), nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]*dto.CategoryResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.category.ListCategories")
	defer span.End()

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.CategoriesFromDomain(categories), nil
}
