package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/authsamples/internal/dependencies/clock"
	"github.com/mcoot/authsamples/internal/dependencies/random"
	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/storage"
)

// Errors
var (
	ErrInvalidSession = errors.New("invalid or expired session")
)

// tokenBytes is the entropy of a session token before encoding
const tokenBytes = 32

// Service establishes and tracks authenticated sessions
type Service struct {
	store  storage.SessionStore
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(store storage.SessionStore, clock clock.Clock, random random.Random, logger *slog.Logger, cfg Config) *Service {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		store:           store,
		clock:           clock,
		random:          random,
		logger:          logger,
		sessionDuration: cfg.SessionDuration,
	}
}

// Establish starts an authenticated session for the account
func (s *Service) Establish(ctx context.Context, account *model.Account) (*model.Session, error) {
	if account == nil || account.ID == "" {
		return nil, fmt.Errorf("establish session: %w", model.ErrAccountNotFound)
	}

	token, err := s.random.Token(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := s.clock.Now()
	session := &model.Session{
		Token:     token,
		Principal: model.PrincipalFor(account),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	if err := s.store.SaveSession(ctx, session); err != nil {
		s.logger.Error("failed to save session",
			slog.String("account_id", string(account.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("session established", slog.String("account_id", string(account.ID)))

	return session, nil
}

// Validate returns the live session for token. Unknown and expired tokens
// both yield ErrInvalidSession; expired sessions are removed.
func (s *Service) Validate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	if session.Expired(s.clock.Now()) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", slog.String("error", err.Error()))
		}
		return nil, ErrInvalidSession
	}

	return session, nil
}

// Invalidate ends a session. Unknown tokens are ignored.
func (s *Service) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}

// CleanExpired removes expired sessions and returns how many were removed
func (s *Service) CleanExpired(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredSessions(ctx, s.clock.Now())
}

// RunCleaner calls CleanExpired every interval until ctx is done
func (s *Service) RunCleaner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.CleanExpired(ctx)
			if err != nil {
				s.logger.Error("session cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				s.logger.Debug("expired sessions removed", slog.Int("count", removed))
			}
		}
	}
}
