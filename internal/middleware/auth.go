package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/watcharin-dev/eventbook/internal/service"
	"github.com/watcharin-dev/eventbook/pkg/response"
)

const (
	// ContextUserID is the gin context key holding the authenticated user id
	ContextUserID = "user_id"
	// ContextUserEmail is the gin context key holding the user email
	ContextUserEmail = "user_email"
)

// Auth validates the Bearer token and stores the caller's identity in the
// request context. Requests without a valid token are rejected with 401.
func Auth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		claims, err := auth.VerifyToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// GetUserID returns the authenticated user id from the context
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
