package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"launchpad/auth-service/internal/app/auth/entity"
	"launchpad/auth-service/internal/app/auth/service"
	"launchpad/pkg/logger"
)

type AuthHandler struct {
	authService service.AuthServiceInterface
	validate    *validator.Validate
}

func NewAuthHandler(authService service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			c.JSON(http.StatusConflict, entity.ErrorResponse{
				Error:   "Conflict",
				Message: "User with this email already exists",
			})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
		default:
			internalError(c, err, "Failed to register user")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid email or password",
			})
			return
		}
		internalError(c, err, "Failed to login")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req entity.RefreshRequest
	if !h.bind(c, &req) {
		return
	}

	tokens, err := h.authService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid or expired refresh token",
			})
			return
		}
		internalError(c, err, "Failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	user, err := h.authService.GetCurrentUser(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error:   "Not Found",
				Message: "User not found",
			})
			return
		}
		internalError(c, err, "Failed to get user info")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req entity.UpdateProfileRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error:   "Not Found",
				Message: "User not found",
			})
			return
		}
		internalError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Profile updated successfully",
		Data:    user,
	})
}

// Logout отзывает токен из заголовка. Маршрут закрыт Authenticate, формат заголовка уже проверен
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), identity.UserID, identity.Token); err != nil {
		internalError(c, err, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Successfully logged out",
	})
}

// ListUsers - список пользователей для админки
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		internalError(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, entity.UserListResponse{
		Users: users,
		Total: len(users),
	})
}

func (h *AuthHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "Bad Request",
			Message: formatValidationErrors(err),
		})
		return false
	}

	return true
}

// formatValidationErrors собирает все ошибки валидации в одну строку
func formatValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Validation failed"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		switch fieldError.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fieldError.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", fieldError.Field()))
		case "url":
			messages = append(messages, fmt.Sprintf("%s must be a valid URL", fieldError.Field()))
		case "min", "max":
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", fieldError.Field(), fieldError.Tag(), fieldError.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fieldError.Field()))
		}
	}

	return strings.Join(messages, "; ")
}

func internalError(c *gin.Context, err error, message string) {
	logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg(message)
	c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
		Error:   "Internal Server Error",
		Message: message,
	})
}
