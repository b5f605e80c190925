package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// newValidator создает валидатор запросов
func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// formatValidationErrors переводит ошибки валидатора в сообщения для клиента
func formatValidationErrors(err error) (string, []string) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error(), nil
	}

	details := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())

		var message string
		switch fieldErr.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters long", field, fieldErr.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		details = append(details, message)
	}

	if len(details) == 0 {
		return err.Error(), nil
	}

	return details[0], details
}

// respondValidationError отвечает 422 с расшифровкой ошибок валидации
func respondValidationError(c *gin.Context, err error) {
	message, details := formatValidationErrors(err)
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   "Validation failed",
		"message": message,
		"details": details,
	})
}
