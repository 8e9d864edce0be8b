package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/qwerprog/scribe-api/internal/domain"
	"github.com/qwerprog/scribe-api/internal/service"
	"github.com/qwerprog/scribe-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	// Not found errors
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, store.ErrJobNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrEmptySourceURL),
		errors.Is(err, domain.ErrInvalidTargetLang),
		errors.Is(err, domain.ErrEmptyJobID),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	// Overload
	case errors.Is(err, service.ErrServiceBusy):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, store.ErrJobNotFound):
		return "Task not found"

	case errors.Is(err, domain.ErrEmptySourceURL):
		return "URL is required"

	case errors.Is(err, domain.ErrInvalidTargetLang):
		return "Summary language is required"

	case errors.As(err, &validationErrs):
		return "Validation error: " + err.Error()

	case errors.Is(err, service.ErrServiceBusy):
		return "Service is busy, try again later"

	default:
		return "An unexpected error occurred"
	}
}
