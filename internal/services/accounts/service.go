package accounts

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/authsamples/internal/dependencies/clock"
	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/services/password"
	"github.com/mcoot/authsamples/internal/storage"
)

// Service registers accounts and checks sign-in credentials
type Service struct {
	store  storage.AccountStore
	hasher password.Hasher
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new account Service
func New(store storage.AccountStore, hasher password.Hasher, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		clock:  clock,
		logger: logger,
	}
}

// Register creates an account for email unless one already exists for it in
// any letter case. A duplicate returns *DuplicateAccountError and leaves the
// registry untouched. Store failures are returned unchanged; hashing failures
// wrap password.ErrHashFailed.
func (s *Service) Register(ctx context.Context, email, rawPassword string) (*model.Account, error) {
	_, err := s.store.FindAccountByEmail(ctx, email)
	if err == nil {
		return nil, &DuplicateAccountError{Email: email}
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		if !errors.Is(err, password.ErrHashFailed) {
			err = errors.Join(password.ErrHashFailed, err)
		}
		return nil, err
	}

	account, err := s.store.SaveAccount(ctx, &model.Account{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	})
	if err != nil {
		// Lost a race with a concurrent registration for the same address
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, &DuplicateAccountError{Email: email}
		}
		s.logger.Error("failed to save account", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("account registered", slog.String("account_id", string(account.ID)))

	return account, nil
}

// Authenticate returns the account for email if rawPassword matches its
// stored hash, ErrInvalidCredentials otherwise
func (s *Service) Authenticate(ctx context.Context, email, rawPassword string) (*model.Account, error) {
	account, err := s.store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(rawPassword, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// Account retrieves an account by ID
func (s *Service) Account(ctx context.Context, id model.AccountID) (*model.Account, error) {
	return s.store.FindAccountByID(ctx, id)
}
