package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/middleware"
	"github.com/watcharin-dev/eventbook/internal/service"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/response"
)

// AuthHandler exposes registration and login over HTTP
type AuthHandler struct {
	auth service.AuthService
	log  *logger.Logger
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(auth service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// RegisterPublicRoutes mounts registration and login
func (h *AuthHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// RegisterProtectedRoutes mounts the profile route
func (h *AuthHandler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/me", h.Me)
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	auth, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, auth)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	auth, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, auth)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.auth.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, profile)
}

func (h *AuthHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUserAlreadyExists):
		response.Conflict(c, "USER_ALREADY_EXISTS", "email already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(c, "invalid email or password")
	case errors.Is(err, domain.ErrUserNotFound):
		response.NotFound(c, "user not found")
	default:
		h.log.Error("unhandled auth error", zap.Error(err))
		response.InternalError(c)
	}
}
