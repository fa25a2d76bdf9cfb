package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/authsamples/internal/middleware"
	"github.com/mcoot/authsamples/internal/web/handler"
	webmw "github.com/mcoot/authsamples/internal/web/middleware"
)

// SessionService is what the web interface needs from session management
type SessionService interface {
	handler.SessionService
	webmw.SessionValidator
}

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger         *slog.Logger
	AccountService handler.AccountService
	SessionService SessionService
	Cookies        *middleware.SessionCookie
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := webmw.Logging(cfg.Logger)
	recoveryMiddleware := webmw.Recovery(cfg.Logger)
	flashMiddleware := webmw.Flash()
	authMiddleware := webmw.Auth(cfg.SessionService, cfg.Cookies)
	optionalAuthMiddleware := webmw.OptionalAuth(cfg.SessionService, cfg.Cookies)

	// Apply global middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Create handlers
	homeHandler := handler.NewHomeHandler()
	authHandler := handler.NewAuthHandler(cfg.AccountService, cfg.SessionService, cfg.Cookies, cfg.Logger)

	// Public routes (optional auth so signed-in users skip the forms)
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.Use(optionalAuthMiddleware)
	public.HandleFunc("/", homeHandler.Root).Methods(http.MethodGet)
	public.HandleFunc("/signup", authHandler.SignUpPage).Methods(http.MethodGet)
	public.HandleFunc("/signup", authHandler.SignUp).Methods(http.MethodPost)
	public.HandleFunc("/signin", authHandler.SignInPage).Methods(http.MethodGet)
	public.HandleFunc("/login", authHandler.SignInPage).Methods(http.MethodGet)
	public.HandleFunc("/signin", authHandler.SignIn).Methods(http.MethodPost)
	public.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Protected routes (require auth)
	protected := r.NewRoute().Subrouter()
	protected.Use(flashMiddleware)
	protected.Use(authMiddleware)
	protected.HandleFunc("/home", homeHandler.Home).Methods(http.MethodGet)

	return r
}
