package handler

import (
	"net/http"

	webmw "github.com/mcoot/authsamples/internal/web/middleware"
	"github.com/mcoot/authsamples/internal/web/templates/layout"
	"github.com/mcoot/authsamples/internal/web/templates/pages"
)

// HomeHandler handles the signed-in landing page
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Root sends visitors to the landing page
func (h *HomeHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// Home renders the landing page for the signed-in principal
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	principal := webmw.GetPrincipal(r.Context())

	data := pages.HomeData{
		PageData: layout.PageData{
			Title:     "Home",
			Principal: principal,
			Flash:     webmw.GetFlash(r.Context()),
		},
		Email: principal.Email,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Home(data).Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
