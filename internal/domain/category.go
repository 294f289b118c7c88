package domain

import (
	"strings"
	"time"
)

// Category groups events for browsing
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate validates category fields
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidRequest
	}
	return nil
}
