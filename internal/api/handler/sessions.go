package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcoot/authsamples/internal/api/middleware"
	"github.com/mcoot/authsamples/internal/api/request"
	"github.com/mcoot/authsamples/internal/api/response"
	"github.com/mcoot/authsamples/internal/validation"
)

// SessionHandler handles sign-in and sign-out endpoints
type SessionHandler struct {
	accounts AccountService
	sessions SessionService
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(accounts AccountService, sessions SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		accounts: accounts,
		sessions: sessions,
		logger:   logger,
	}
}

// Login handles POST /api/v1/sessions
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	req.Normalize()

	if errs := validation.Struct(req); errs != nil {
		WriteError(w, NewValidationError(errs))
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		logServerError(h.logger, "sign-in failed", err)
		WriteError(w, err)
		return
	}

	session, err := h.sessions.Establish(r.Context(), account)
	if err != nil {
		logServerError(h.logger, "failed to establish session", err)
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFrom(account, session))
}

// Logout handles DELETE /api/v1/sessions/current
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	if err := h.sessions.Invalidate(r.Context(), session.Token); err != nil {
		logServerError(h.logger, "failed to invalidate session", err)
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
