package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/authsamples/internal/api/apierr"
	"github.com/mcoot/authsamples/internal/validation"
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewValidationError reports per-field validation failures
func NewValidationError(details []validation.FieldError) error {
	return apierr.NewValidationError(details)
}

// logServerError logs err when it will be reported as a server failure
func logServerError(logger *slog.Logger, msg string, err error) {
	if apierr.StatusOf(err) >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
	}
}
