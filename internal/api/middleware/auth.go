package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/authsamples/internal/api/apierr"
	"github.com/mcoot/authsamples/internal/middleware"
	"github.com/mcoot/authsamples/internal/model"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
)

// SessionValidator resolves a session token to a live session
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*model.Session, error)
}

// Auth creates authentication middleware. Accepts a bearer token, or the
// signed session cookie when cookies is non-nil.
func Auth(sessions SessionValidator, cookies *middleware.SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, cookies)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := sessions.Validate(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request, cookies *middleware.SessionCookie) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	// Fall back to the web session cookie
	if cookies != nil {
		if token, err := cookies.Read(r); err == nil {
			return token
		}
	}

	return ""
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// MustGetSession returns the authenticated session or panics
func MustGetSession(ctx context.Context) *model.Session {
	session := GetSession(ctx)
	if session == nil {
		panic("no session in context - auth middleware not applied?")
	}
	return session
}
