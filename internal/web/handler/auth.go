package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mcoot/authsamples/internal/middleware"
	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/services/accounts"
	"github.com/mcoot/authsamples/internal/validation"
	webmw "github.com/mcoot/authsamples/internal/web/middleware"
	"github.com/mcoot/authsamples/internal/web/templates/layout"
	"github.com/mcoot/authsamples/internal/web/templates/pages"
)

// AccountService registers and authenticates accounts
type AccountService interface {
	Register(ctx context.Context, email, rawPassword string) (*model.Account, error)
	Authenticate(ctx context.Context, email, rawPassword string) (*model.Account, error)
}

// SessionService starts and ends authenticated sessions
type SessionService interface {
	Establish(ctx context.Context, account *model.Account) (*model.Session, error)
	Invalidate(ctx context.Context, token string) error
}

const (
	duplicateEmailMessage     = "Email already registered"
	invalidCredentialsMessage = "Invalid email or password"
)

// AuthHandler handles sign-up, sign-in and sign-out
type AuthHandler struct {
	accounts AccountService
	sessions SessionService
	cookies  *middleware.SessionCookie
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts AccountService, sessions SessionService, cookies *middleware.SessionCookie, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
}

// SignUpPage renders the registration form
func (h *AuthHandler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	if webmw.GetPrincipal(r.Context()) != nil {
		// Already signed in
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}

	h.renderSignUp(w, r, http.StatusOK, pages.SignUpData{
		PageData: layout.PageData{
			Title: "Sign up",
			Flash: webmw.GetFlash(r.Context()),
		},
	})
}

// SignUp handles registration form submission. The new account is signed in
// only after registration has succeeded.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSignUp(w, r, http.StatusBadRequest, pages.SignUpData{Error: "Invalid form data"})
		return
	}

	creds := validation.Credentials{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	creds.Normalize()

	if errs := validation.Struct(creds); errs != nil {
		h.renderSignUp(w, r, http.StatusOK, pages.SignUpData{
			Email:       creds.Email,
			FieldErrors: validation.ByField(errs),
		})
		return
	}

	account, err := h.accounts.Register(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrDuplicateAccount) {
			h.renderSignUp(w, r, http.StatusOK, pages.SignUpData{
				Email:       creds.Email,
				FieldErrors: map[string]string{"email": duplicateEmailMessage},
			})
			return
		}

		h.logger.Error("registration failed", slog.String("error", err.Error()))
		h.renderSignUp(w, r, http.StatusInternalServerError, pages.SignUpData{
			Email: creds.Email,
			Error: "Registration failed. Please try again.",
		})
		return
	}

	session, err := h.sessions.Establish(r.Context(), account)
	if err != nil {
		// The account exists; let the user sign in by hand
		h.logger.Error("failed to establish session after registration",
			slog.String("account_id", string(account.ID)),
			slog.String("error", err.Error()),
		)
		webmw.SetFlash(w, "info", "Account created. Please sign in.")
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
		return
	}

	if !h.bindSession(w, r, session) {
		return
	}

	webmw.SetFlash(w, "success", "Account created! Welcome, "+account.Email+"!")
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// SignInPage renders the sign-in form
func (h *AuthHandler) SignInPage(w http.ResponseWriter, r *http.Request) {
	if webmw.GetPrincipal(r.Context()) != nil {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}

	h.renderSignIn(w, r, http.StatusOK, pages.SignInData{
		PageData: layout.PageData{
			Title: "Sign in",
			Flash: webmw.GetFlash(r.Context()),
		},
		Next: r.URL.Query().Get("next"),
	})
}

// SignIn handles sign-in form submission
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSignIn(w, r, http.StatusBadRequest, pages.SignInData{Error: "Invalid form data"})
		return
	}

	creds := validation.SignInCredentials{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	creds.Normalize()
	next := r.FormValue("next")

	if errs := validation.Struct(creds); errs != nil {
		h.renderSignIn(w, r, http.StatusOK, pages.SignInData{
			Email: creds.Email,
			Error: "Email and password are required",
			Next:  next,
		})
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if !errors.Is(err, accounts.ErrInvalidCredentials) {
			h.logger.Error("sign-in failed", slog.String("error", err.Error()))
		}
		h.renderSignIn(w, r, http.StatusOK, pages.SignInData{
			Email: creds.Email,
			Error: invalidCredentialsMessage,
			Next:  next,
		})
		return
	}

	session, err := h.sessions.Establish(r.Context(), account)
	if err != nil {
		h.logger.Error("failed to establish session", slog.String("error", err.Error()))
		h.renderSignIn(w, r, http.StatusInternalServerError, pages.SignInData{
			Email: creds.Email,
			Error: "Sign-in failed. Please try again.",
			Next:  next,
		})
		return
	}

	if !h.bindSession(w, r, session) {
		return
	}

	webmw.SetFlash(w, "success", "Welcome back, "+account.Email+"!")
	http.Redirect(w, r, safeRedirect(next), http.StatusSeeOther)
}

// Logout ends the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := webmw.GetSession(r.Context()); session != nil {
		if err := h.sessions.Invalidate(r.Context(), session.Token); err != nil {
			h.logger.Warn("failed to invalidate session", slog.String("error", err.Error()))
		}
	}

	h.cookies.Clear(w)
	webmw.SetFlash(w, "info", "You have been signed out")
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

func (h *AuthHandler) bindSession(w http.ResponseWriter, r *http.Request, session *model.Session) bool {
	if err := h.cookies.Write(w, session.Token); err != nil {
		h.logger.Error("failed to write session cookie", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *AuthHandler) renderSignUp(w http.ResponseWriter, r *http.Request, status int, data pages.SignUpData) {
	data.Title = "Sign up"
	if data.FieldErrors == nil {
		data.FieldErrors = make(map[string]string)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.SignUp(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render sign-up page", slog.String("error", err.Error()))
	}
}

func (h *AuthHandler) renderSignIn(w http.ResponseWriter, r *http.Request, status int, data pages.SignInData) {
	data.Title = "Sign in"

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.SignIn(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render sign-in page", slog.String("error", err.Error()))
	}
}

// safeRedirect only follows local paths. Browsers read "/\host" and a
// path with embedded tabs or newlines as "//host", so those are refused too.
func safeRedirect(next string) string {
	if next == "" || strings.HasPrefix(next, "//") || !strings.HasPrefix(next, "/") {
		return "/home"
	}
	for i := 0; i < len(next); i++ {
		if next[i] == '\\' || next[i] < 0x20 || next[i] == 0x7f {
			return "/home"
		}
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/home"
	}
	return next
}
