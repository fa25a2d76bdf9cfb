package middleware

import (
	"context"
	"net/http"
	"net/url"

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

// GetSession retrieves the authenticated session from the request context.
// Returns nil if the request is not signed in.
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// GetPrincipal returns the signed-in principal, or nil
func GetPrincipal(ctx context.Context) *model.Principal {
	session := GetSession(ctx)
	if session == nil {
		return nil
	}
	return &session.Principal
}

// Auth returns middleware that requires authentication.
// Redirects to the sign-in page if not authenticated.
func Auth(sessions SessionValidator, cookies *middleware.SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessionFromCookie(r, sessions, cookies)
			if session == nil {
				// Remember where to go back to after signing in
				http.Redirect(w, r, "/signin?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns middleware that attempts authentication but doesn't require it
func OptionalAuth(sessions SessionValidator, cookies *middleware.SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessionFromCookie(r, sessions, cookies)
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromCookie(r *http.Request, sessions SessionValidator, cookies *middleware.SessionCookie) *model.Session {
	token, err := cookies.Read(r)
	if err != nil {
		return nil
	}

	session, err := sessions.Validate(r.Context(), token)
	if err != nil {
		return nil
	}

	return session
}
