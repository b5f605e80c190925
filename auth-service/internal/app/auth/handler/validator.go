package handler

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// newValidator создает валидатор запросов с доменными правилами
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("phone", validatePhone)
	v.RegisterValidation("personname", validatePersonName)
	return v
}

// validatePhone принимает телефон из 10-11 цифр, разделители не допускаются
func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if len(phone) < 10 || len(phone) > 11 {
		return false
	}
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// validatePersonName принимает имена из букв и пробелов
func validatePersonName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
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
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters long", field, fieldErr.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters long", field, fieldErr.Param())
		case "phone":
			message = fmt.Sprintf("%s must contain 10 or 11 digits", field)
		case "personname":
			message = fmt.Sprintf("%s must contain only letters and spaces", field)
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
