package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/authsamples/internal/middleware"
	"github.com/mcoot/authsamples/internal/web/templates/layout"
	"github.com/mcoot/authsamples/internal/web/templates/pages"
)

// Recovery creates panic recovery middleware for the web interface.
// Renders the HTML error page on panic.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	data := pages.ErrorData{
		PageData: layout.PageData{Title: "Error"},
		Status:   http.StatusInternalServerError,
		Message:  "Something went wrong. Please try again later.",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = pages.Error(data).Render(r.Context(), w)
}
