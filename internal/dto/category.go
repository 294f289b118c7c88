package dto

import (
	"time"

	"github.com/watcharin-dev/eventbook/internal/domain"
)

// CreateCategoryRequest is the payload for creating a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CategoryResponse is the category shape returned to clients
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryFromDomain maps a domain category to its response shape
func CategoryFromDomain(c *domain.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

// CategoriesFromDomain maps a slice of categories, never returning nil
func CategoriesFromDomain(categories []*domain.Category) []*CategoryResponse {
	out := make([]*CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryFromDomain(c))
	}
	return out
}
