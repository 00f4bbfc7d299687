package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Server-side failures are attached to the gin context for the request logger
// and answered with a generic message.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)

	message := err.Error()
	switch code {
	case http.StatusNotFound:
		message = "ride not found"
	case http.StatusServiceUnavailable:
		_ = c.Error(err)
		message = "service temporarily unavailable"
	case http.StatusInternalServerError:
		_ = c.Error(err)
		message = "internal server error"
	}
	c.JSON(code, ErrorResponse{Error: message})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation and business rule errors - Bad Request
	case errors.Is(err, domain.ErrInvalidRide),
		errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrInvalidSecret),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidPhoneNo),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrDuplicateActiveRide):
		return http.StatusBadRequest

	// Store timeouts and connection failures
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
