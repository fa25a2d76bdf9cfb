package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/authsamples/internal/api/handler"
	apimw "github.com/mcoot/authsamples/internal/api/middleware"
	"github.com/mcoot/authsamples/internal/api/response"
	"github.com/mcoot/authsamples/internal/middleware"
)

// SessionService is what the API needs from session management
type SessionService interface {
	handler.SessionService
	apimw.SessionValidator
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AccountService handler.AccountService
	SessionService SessionService
	// Cookies lets browser clients authenticate with the web session cookie (optional)
	Cookies *middleware.SessionCookie
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	accountHandler := handler.NewAccountHandler(cfg.AccountService, cfg.SessionService, cfg.Logger)
	sessionHandler := handler.NewSessionHandler(cfg.AccountService, cfg.SessionService, cfg.Logger)

	// Create middleware
	authMiddleware := apimw.Auth(cfg.SessionService, cfg.Cookies)
	loggingMiddleware := apimw.Logging(cfg.Logger)
	recoveryMiddleware := apimw.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes
	api.HandleFunc("/accounts", accountHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/sessions", sessionHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/accounts/me", accountHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/current", sessionHandler.Logout).Methods(http.MethodDelete)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
