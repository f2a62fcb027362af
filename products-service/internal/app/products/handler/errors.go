package handler

import (
	"errors"
	"net/http"

	"launchpad/pkg/logger"
	"launchpad/products-service/internal/app/products/entity"
	"launchpad/products-service/internal/app/products/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError переводит ошибки сервисного слоя в HTTP ответ
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
	case errors.Is(err, service.ErrParentNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Parent comment not found"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Validation failed", Message: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "Access denied"})
	case errors.Is(err, service.ErrInvalidStatusTransition):
		c.JSON(http.StatusConflict, entity.ErrorResponse{
			Error:   "Invalid status transition",
			Message: "Only pending products can be moderated",
		})
	default:
		logger.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg(fallback)
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: fallback})
	}
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}

// bindAndValidate разбирает JSON тело и проверяет validate теги
func bindAndValidate(c *gin.Context, v *validator.Validate, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return false
	}

	if err := v.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Validation failed", Message: formatValidationError(err)})
		return false
	}

	return true
}

func requireIdentity(c *gin.Context) (entity.Identity, bool) {
	identity, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
	}
	return identity, ok
}
