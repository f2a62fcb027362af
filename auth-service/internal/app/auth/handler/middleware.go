package handler

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"launchpad/auth-service/internal/app/auth/entity"
	"launchpad/auth-service/internal/app/auth/service"
	"launchpad/pkg/logger"
)

const (
	ctxUserID   = "user_id"
	ctxEmail    = "email"
	ctxRoleName = "role_name"
	ctxToken    = "access_token"
)

// identity - данные пользователя из проверенного access токена
type identity struct {
	UserID   uuid.UUID
	RoleName string
	Token    string
}

type AuthMiddleware struct {
	authService service.AuthServiceInterface
}

func NewAuthMiddleware(authService service.AuthServiceInterface) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		token := parts[1]

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenBlacklisted) {
				abortUnauthorized(c, "Invalid or expired token")
				return
			}
			logger.Error().Err(err).Msg("Failed to validate token")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, entity.ErrorResponse{
				Error:   "Service Unavailable",
				Message: "Token validation unavailable",
			})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRoleName, claims.RoleName)
		c.Set(ctxToken, token)

		c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleName, ok := c.Get(ctxRoleName)
		if !ok {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		roleStr, ok := roleName.(string)
		if !ok {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		if !slices.Contains(roles, roleStr) {
			c.AbortWithStatusJSON(http.StatusForbidden, entity.ErrorResponse{
				Error:   "Forbidden",
				Message: "Insufficient permissions",
			})
			return
		}

		c.Next()
	}
}

func requireIdentity(c *gin.Context) (identity, bool) {
	userID, ok := c.Get(ctxUserID)
	if !ok {
		abortUnauthorized(c, "Unauthorized")
		return identity{}, false
	}

	id, ok := userID.(uuid.UUID)
	if !ok {
		abortUnauthorized(c, "Unauthorized")
		return identity{}, false
	}

	return identity{
		UserID:   id,
		RoleName: c.GetString(ctxRoleName),
		Token:    c.GetString(ctxToken),
	}, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
	})
}
