package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/service"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/response"
)

// CategoryHandler exposes event categories over HTTP
type CategoryHandler struct {
	categories service.CategoryService
	log        *logger.Logger
}

// NewCategoryHandler creates a category handler
func NewCategoryHandler(categories service.CategoryService, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, log: log}
}

// RegisterPublicRoutes mounts the read-only category routes
func (h *CategoryHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/categories")
	{
		categories.GET("", h.List)
		categories.GET("/:id", h.Get)
	}
}

// RegisterProtectedRoutes mounts the category write routes
func (h *CategoryHandler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/categories", h.Create)
}

// Create handles POST /api/v1/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, category)
}

// Get handles GET /api/v1/categories/:id
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.categories.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, category)
}

// List handles GET /api/v1/categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, categories)
}

func (h *CategoryHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrCategoryNotFound):
		response.NotFound(c, "category not found")
	default:
		h.log.Error("unhandled category error", zap.Error(err))
		response.InternalError(c)
	}
}
