package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/authsamples/internal/middleware"
)

// Logging creates request id and logging middleware for the web interface
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	requestID := middleware.RequestID()
	logging := middleware.Logging(logger)
	return func(next http.Handler) http.Handler {
		return requestID(logging(next))
	}
}
