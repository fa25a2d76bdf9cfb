package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcoot/authsamples/internal/api/middleware"
	"github.com/mcoot/authsamples/internal/api/request"
	"github.com/mcoot/authsamples/internal/api/response"
	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/validation"
)

// AccountService registers, authenticates and looks up accounts
type AccountService interface {
	Register(ctx context.Context, email, rawPassword string) (*model.Account, error)
	Authenticate(ctx context.Context, email, rawPassword string) (*model.Account, error)
	Account(ctx context.Context, id model.AccountID) (*model.Account, error)
}

// SessionService starts and ends authenticated sessions
type SessionService interface {
	Establish(ctx context.Context, account *model.Account) (*model.Session, error)
	Invalidate(ctx context.Context, token string) error
}

// AccountHandler handles account endpoints
type AccountHandler struct {
	accounts AccountService
	sessions SessionService
	logger   *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountService, sessions SessionService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		sessions: sessions,
		logger:   logger,
	}
}

// Register handles POST /api/v1/accounts
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	req.Normalize()

	if errs := validation.Struct(req); errs != nil {
		WriteError(w, NewValidationError(errs))
		return
	}

	account, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		logServerError(h.logger, "registration failed", err)
		WriteError(w, err)
		return
	}

	// Only a successfully registered account gets a session
	session, err := h.sessions.Establish(r.Context(), account)
	if err != nil {
		h.logger.Error("failed to establish session after registration",
			slog.String("account_id", string(account.ID)),
			slog.String("error", err.Error()),
		)
		session = nil
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFrom(account, session))
}

// Me handles GET /api/v1/accounts/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	account, err := h.accounts.Account(r.Context(), session.Principal.AccountID)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.AccountFromModel(account)
	resp.Roles = session.Principal.Roles
	response.JSON(w, http.StatusOK, resp)
}
