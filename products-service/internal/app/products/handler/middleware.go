package handler

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"launchpad/pkg/logger"
	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID   = "user_id"
	ctxEmail    = "email"
	ctxName     = "name"
	ctxRoleName = "role_name"
)

var errInvalidToken = errors.New("invalid or expired token")

// JWTClaims - claims access токена, выпущенного Auth Service
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	RoleName string `json:"role_name"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет JWT локально по общему секрету
// и отклоняет токены из черного списка (logout в Auth Service)
type AuthMiddleware struct {
	jwtSecret string
	blacklist util.TokenBlacklist
}

func NewAuthMiddleware(jwtSecret string, blacklist util.TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		blacklist: blacklist,
	}
}

// Authenticate требует валидный токен и кладет данные пользователя в контекст Gin
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.validate(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, errInvalidToken) {
				abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			logger.Error().Err(err).Msg("Failed to check token blacklist")
			abortWithError(c, http.StatusServiceUnavailable, "Token validation unavailable")
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuthenticate заполняет контекст, если передан валидный токен.
// Без токена или с невалидным токеном запрос обрабатывается как анонимный
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if ok {
			if claims, err := m.validate(c.Request.Context(), tokenString); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole пропускает только пользователей с одной из ролей.
// Ставится после Authenticate
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleName, exists := c.Get(ctxRoleName)
		if !exists {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		roleStr, ok := roleName.(string)
		if !ok || !slices.Contains(roles, roleStr) {
			c.JSON(http.StatusForbidden, entity.ErrorResponse{
				Error:   "Forbidden",
				Message: "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) validate(ctx context.Context, tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || claims.UserID == "" {
		return nil, errInvalidToken
	}

	if m.blacklist != nil {
		revoked, err := m.blacklist.IsBlacklisted(ctx, tokenString)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, errInvalidToken
		}
	}

	return claims, nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setIdentity(c *gin.Context, claims *JWTClaims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxName, claims.Name)
	c.Set(ctxRoleName, claims.RoleName)
}

// identityFromContext возвращает пользователя, выставленного middleware
func identityFromContext(c *gin.Context) (entity.Identity, bool) {
	userID := c.GetString(ctxUserID)
	if userID == "" {
		return entity.Identity{}, false
	}

	return entity.Identity{
		UserID: userID,
		Name:   c.GetString(ctxName),
		Role:   c.GetString(ctxRoleName),
	}, true
}

func abortWithError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{Error: message})
	c.Abort()
}
