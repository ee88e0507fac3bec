package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// APIError carries the HTTP status a failure maps to plus the
// client-facing message; it travels up from helpers so every route
// answers with the same envelope.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message, Errors: []string{}}
}

func respondOK(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, gin.H{
		"statusCode": statusCode,
		"data":       data,
		"message":    message,
		"success":    true,
	})
}

func respondWithError(c *gin.Context, statusCode int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, statusCode, message)
	c.AbortWithStatusJSON(statusCode, gin.H{
		"statusCode": statusCode,
		"message":    message,
		"errors":     []string{},
		"success":    false,
	})
}

func respondAPIError(c *gin.Context, route string, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		log.Printf("[%s] returning error %d: %s", route, apiErr.StatusCode, apiErr.Message)
		c.AbortWithStatusJSON(apiErr.StatusCode, gin.H{
			"statusCode": apiErr.StatusCode,
			"message":    apiErr.Message,
			"errors":     apiErr.Errors,
			"success":    false,
		})
		return
	}
	respondWithError(c, 500, route, "internal server error")
}

func respondValidationError(c *gin.Context, route string, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		log.Printf("[%s] validation failed: %v", route, details)
		c.AbortWithStatusJSON(400, gin.H{
			"statusCode": 400,
			"message":    "validation failed",
			"errors":     details,
			"success":    false,
		})
		return
	}

	respondWithError(c, 400, route, "invalid body")
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		respondWithError(c, 500, route, "internal server error")
	}
}
