package response

import (
	"time"

	"github.com/mcoot/authsamples/internal/model"
)

// Account represents an account in API responses. The password hash is never included.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Roles     []string  `json:"roles,omitempty"`
}

// AccountFromModel converts a model.Account to a response Account
func AccountFromModel(a *model.Account) Account {
	return Account{
		ID:        string(a.ID),
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}

// AuthResponse is the response for registration and sign-in
type AuthResponse struct {
	Account      Account   `json:"account"`
	SessionToken string    `json:"session_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
}

// AuthResponseFrom builds an AuthResponse. session may be nil when the
// account was created but no session could be started.
func AuthResponseFrom(a *model.Account, s *model.Session) AuthResponse {
	resp := AuthResponse{Account: AccountFromModel(a)}
	if s != nil {
		resp.SessionToken = s.Token
		resp.ExpiresAt = s.ExpiresAt
	}
	return resp
}

// Health is the response for the health check
type Health struct {
	Status string `json:"status"`
}
