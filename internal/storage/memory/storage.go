package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts   map[model.AccountID]*model.Account
	emailIndex map[string]model.AccountID
	sessions   map[string]*model.Session
	nextID     int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:   make(map[model.AccountID]*model.Account),
		emailIndex: make(map[string]model.AccountID),
		sessions:   make(map[string]*model.Session),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Account operations

func (s *Storage) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[model.NormalizeEmail(email)]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return s.copyAccount(id)
}

func (s *Storage) FindAccountByID(ctx context.Context, id model.AccountID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyAccount(id)
}

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := account.NormalizedEmail()
	if _, taken := s.emailIndex[key]; taken {
		return nil, model.ErrEmailTaken
	}

	s.nextID++
	saved := *account
	saved.ID = model.AccountID(strconv.FormatInt(s.nextID, 10))

	s.accounts[saved.ID] = &saved
	s.emailIndex[key] = saved.ID

	result := saved
	return &result, nil
}

// AccountCount returns the number of stored accounts
func (s *Storage) AccountCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// copyAccount must be called with the lock held
func (s *Storage) copyAccount(id model.AccountID) (*model.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	result := *account
	return &result, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = cloneSession(session)
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// cloneSession copies a session so callers never share its roles slice
func cloneSession(session *model.Session) *model.Session {
	c := *session
	c.Principal.Roles = slices.Clone(session.Principal.Roles)
	return &c
}

// SessionCount returns the number of stored sessions, expired or not
func (s *Storage) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
