package storage

import (
	"context"
	"time"

	"github.com/mcoot/authsamples/internal/model"
)

// AccountStore persists accounts and owns email uniqueness
type AccountStore interface {
	// FindAccountByEmail looks up an account case-insensitively.
	// Returns model.ErrAccountNotFound when no account matches.
	FindAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	FindAccountByID(ctx context.Context, id model.AccountID) (*model.Account, error)

	// SaveAccount persists a new account and returns it with ID assigned.
	// Returns model.ErrEmailTaken if the email is already registered in any case.
	SaveAccount(ctx context.Context, account *model.Account) (*model.Account, error)
}

// SessionStore persists authenticated sessions
type SessionStore interface {
	SaveSession(ctx context.Context, session *model.Session) error
	// GetSession returns model.ErrSessionNotFound for unknown tokens
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	// DeleteExpiredSessions removes sessions that expired before now and
	// returns how many were removed
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// Storage defines the interface for data persistence
type Storage interface {
	AccountStore
	SessionStore

	Close() error
}
