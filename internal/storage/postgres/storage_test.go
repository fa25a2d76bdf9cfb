package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/testutil"
)

// testDatabaseEnv names a disposable database used by these tests.
// The suite is skipped when it is unset.
const testDatabaseEnv = "AUTH_TEST_DATABASE_URL"

type StorageSuite struct {
	suite.Suite
	dsn     string
	pool    *pgxpool.Pool
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	dsn := os.Getenv(testDatabaseEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	suite.Run(t, &StorageSuite{dsn: dsn})
}

func (s *StorageSuite) SetupSuite() {
	s.ctx = context.Background()

	migrator, err := NewMigrator(s.dsn, testutil.NopLogger())
	s.Require().NoError(err)
	s.Require().NoError(migrator.Up(s.ctx))

	s.pool, err = pgxpool.New(s.ctx, s.dsn)
	s.Require().NoError(err)
	s.storage = NewWithPool(s.pool)
}

func (s *StorageSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *StorageSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE sessions, accounts RESTART IDENTITY`)
	s.Require().NoError(err)
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) saveAccount(email string) *model.Account {
	saved, err := s.storage.SaveAccount(s.ctx, &model.Account{
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    s.now,
	})
	s.Require().NoError(err)
	return saved
}

func (s *StorageSuite) TestSaveAndFindAccount() {
	saved := s.saveAccount("Alice@Example.com")
	s.NotEmpty(saved.ID)

	byEmail, err := s.storage.FindAccountByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(saved.ID, byEmail.ID)
	s.Equal("Alice@Example.com", byEmail.Email)
	s.True(s.now.Equal(byEmail.CreatedAt))

	byID, err := s.storage.FindAccountByID(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Equal(byEmail, byID)
}

func (s *StorageSuite) TestFindAccountNotFound() {
	_, err := s.storage.FindAccountByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrAccountNotFound)

	_, err = s.storage.FindAccountByID(s.ctx, "12345")
	s.ErrorIs(err, model.ErrAccountNotFound)

	_, err = s.storage.FindAccountByID(s.ctx, "not-a-number")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestSaveAccountRejectsDuplicateEmailAnyCase() {
	s.saveAccount("User@Example.com")

	_, err := s.storage.SaveAccount(s.ctx, &model.Account{Email: "user@example.com", PasswordHash: "h"})
	s.ErrorIs(err, model.ErrEmailTaken)
}

func (s *StorageSuite) TestNormalizedEmailComesFromGo() {
	saved := s.saveAccount("ÉLODIE@Example.com")

	var normalized string
	err := s.pool.QueryRow(s.ctx, `SELECT email_normalized FROM accounts WHERE id = $1::bigint`, string(saved.ID)).Scan(&normalized)
	s.Require().NoError(err)
	s.Equal(model.NormalizeEmail("ÉLODIE@Example.com"), normalized)

	found, err := s.storage.FindAccountByEmail(s.ctx, "élodie@example.com")
	s.Require().NoError(err)
	s.Equal(saved.ID, found.ID)

	_, err = s.storage.SaveAccount(s.ctx, &model.Account{Email: "Élodie@EXAMPLE.com", PasswordHash: "h"})
	s.ErrorIs(err, model.ErrEmailTaken)
}

func (s *StorageSuite) TestConcurrentSavesOnlyOneWins() {
	const attempts = 10
	emails := []string{"RACE@example.com", "race@example.com", "Race@Example.COM"}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.storage.SaveAccount(s.ctx, &model.Account{
				Email:        emails[i%len(emails)],
				PasswordHash: "h",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if errors.Is(err, model.ErrEmailTaken) {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, accepted)
	s.Equal(attempts-1, rejected)
}

func (s *StorageSuite) TestSessionLifecycle() {
	account := s.saveAccount("alice@example.com")
	session := &model.Session{
		Token:     "tok",
		Principal: model.PrincipalFor(account),
		CreatedAt: s.now,
		ExpiresAt: s.now.Add(time.Hour),
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	found, err := s.storage.GetSession(s.ctx, "tok")
	s.Require().NoError(err)
	s.Equal(session.Principal, found.Principal)
	s.True(session.ExpiresAt.Equal(found.ExpiresAt))

	s.Require().NoError(s.storage.DeleteSession(s.ctx, "tok"))
	_, err = s.storage.GetSession(s.ctx, "tok")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeleteExpiredSessions() {
	account := s.saveAccount("alice@example.com")
	principal := model.PrincipalFor(account)

	s.Require().NoError(s.storage.SaveSession(s.ctx, &model.Session{
		Token: "old", Principal: principal,
		CreatedAt: s.now.Add(-2 * time.Hour), ExpiresAt: s.now.Add(-time.Minute),
	}))
	s.Require().NoError(s.storage.SaveSession(s.ctx, &model.Session{
		Token: "new", Principal: principal,
		CreatedAt: s.now, ExpiresAt: s.now.Add(time.Hour),
	}))

	removed, err := s.storage.DeleteExpiredSessions(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.storage.GetSession(s.ctx, "new")
	s.NoError(err)
}
