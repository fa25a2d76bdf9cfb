package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/authsamples/internal/services/accounts"
	"github.com/mcoot/authsamples/internal/services/auth"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// Test: register, get a session, sign out, sign back in
func (s *IntegrationSuite) TestRegistrationToSignInFlow() {
	s.app.MockRandom.QueueToken("first-session", "second-session")

	// Step 1: Register
	account, err := s.app.AccountService.Register(s.ctx, "Alice@Example.com", "password123")
	s.Require().NoError(err)
	s.NotEmpty(account.ID)

	// Step 2: Establish a session for exactly that account
	session, err := s.app.AuthService.Establish(s.ctx, account)
	s.Require().NoError(err)
	s.Equal("first-session", session.Token)
	s.Equal(account.ID, session.Principal.AccountID)

	// Step 3: Session validates
	validated, err := s.app.AuthService.Validate(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal("Alice@Example.com", validated.Principal.Email)

	// Step 4: Sign out
	s.Require().NoError(s.app.AuthService.Invalidate(s.ctx, session.Token))
	_, err = s.app.AuthService.Validate(s.ctx, session.Token)
	s.ErrorIs(err, auth.ErrInvalidSession)

	// Step 5: Sign back in with a different case
	signedIn, err := s.app.AccountService.Authenticate(s.ctx, "alice@example.com", "password123")
	s.Require().NoError(err)
	s.Equal(account.ID, signedIn.ID)

	session, err = s.app.AuthService.Establish(s.ctx, signedIn)
	s.Require().NoError(err)
	s.Equal("second-session", session.Token)
}

// Test: a second registration in another case is rejected and leaves one account
func (s *IntegrationSuite) TestDuplicateRegistration() {
	_, err := s.app.AccountService.Register(s.ctx, "User@Example.com", "password123")
	s.Require().NoError(err)

	_, err = s.app.AccountService.Register(s.ctx, "user@example.com", "password456")
	s.ErrorIs(err, accounts.ErrDuplicateAccount)
	s.Equal(1, s.app.Memory.AccountCount())

	// The original password still works
	_, err = s.app.AccountService.Authenticate(s.ctx, "user@example.com", "password123")
	s.NoError(err)
}

// Test: sessions expire with the configured lifetime and get cleaned up
func (s *IntegrationSuite) TestSessionExpiry() {
	account, err := s.app.AccountService.Register(s.ctx, "bob@example.com", "password123")
	s.Require().NoError(err)
	session, err := s.app.AuthService.Establish(s.ctx, account)
	s.Require().NoError(err)

	s.app.MockClock.Advance(auth.DefaultConfig().SessionDuration + time.Second)

	removed, err := s.app.AuthService.CleanExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.app.AuthService.Validate(s.ctx, session.Token)
	s.ErrorIs(err, auth.ErrInvalidSession)
}

func (s *IntegrationSuite) TestNewDefaultsToMemory() {
	app, err := New(Config{})
	s.Require().NoError(err)
	defer app.Close()

	s.NotNil(app.AccountService)
	s.NotNil(app.AuthService)
	s.NotNil(app.Cookies)
}

func (s *IntegrationSuite) TestNewRejectsUnknownStorage() {
	_, err := New(Config{StorageType: "sqlite"})
	s.Error(err)
}

func (s *IntegrationSuite) TestNewRequiresBackendConfig() {
	_, err := New(Config{StorageType: StorageTypeRedis})
	s.Error(err)

	_, err = New(Config{StorageType: StorageTypePostgres})
	s.Error(err)
}
