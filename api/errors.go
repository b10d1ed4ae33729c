package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/repository"
	"example.com/backstage/services/bipagem/utils"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest     = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound           = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInternalServer     = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrUnauthorized       = &Error{Message: "Unauthorized", StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}
	ErrConflict           = &Error{Message: "Resource was modified concurrently, reload and retry", StatusCode: http.StatusConflict, Code: "CONFLICT"}
	ErrServiceUnavailable = &Error{Message: "Service unavailable", StatusCode: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE"}
)

// NewValidationError creates a new validation error with a custom message
func NewValidationError(message string) *Error {
	return &Error{
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
	}
}

// NewError creates a new API error with custom details
func NewError(message string, statusCode int, code string) *Error {
	return &Error{
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

// statusForKind maps a domain error kind to its HTTP status
func statusForKind(kind string) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPermissionDenied, domain.KindWrongArea:
		return http.StatusForbidden
	case domain.KindDuplicateName, domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindDivergencePresent, domain.KindEmptyReport:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

// toAPIError converts any error into the API error written to the client
func toAPIError(err error) *Error {
	var apiError *Error
	if errors.As(err, &apiError) {
		return apiError
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return NewValidationError(utils.ValidationMessage(err))
	}

	if errors.Is(err, repository.ErrConcurrentModification) {
		return ErrConflict
	}

	var kindErr domain.KindError
	if errors.As(err, &kindErr) {
		return NewError(kindErr.Error(), statusForKind(kindErr.Kind()), kindErr.Kind())
	}

	return nil
}

// WriteError writes an error response
func WriteError(c *gin.Context, err error) {
	if apiError := toAPIError(err); apiError != nil {
		c.AbortWithStatusJSON(apiError.StatusCode, ErrorResponse{
			Message: apiError.Message,
			Code:    apiError.Code,
		})
		return
	}

	// Log unknown errors
	requestID, _ := c.Get(requestIDKey)
	log.Error().Err(err).Interface("request_id", requestID).Str("path", c.Request.URL.Path).Msg("Unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Message: ErrInternalServer.Message,
		Code:    ErrInternalServer.Code,
	})
}
