package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/authsamples/internal/dependencies/mocks"
	"github.com/mcoot/authsamples/internal/middleware"
	"github.com/mcoot/authsamples/internal/services/auth"
	"github.com/mcoot/authsamples/internal/services/password"
	"github.com/mcoot/authsamples/internal/storage/memory"
	"github.com/mcoot/authsamples/internal/testutil"
)

// testCookieKey signs cookies in tests so they are stable across servers
var testCookieKey = []byte("test-cookie-hash-key-0123456789ab")

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Memory exposes the backing store for assertions
	Memory *memory.Storage

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Passwords are hashed with real bcrypt at its minimum cost.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	authCfg := auth.DefaultConfig()

	app := newWithDependencies(dependencies{
		store:   store,
		clock:   mockClock,
		random:  mockRandom,
		hasher:  password.NewBcrypt(bcrypt.MinCost),
		cookies: middleware.NewSessionCookie(testCookieKey, authCfg.SessionDuration, false),
		authCfg: authCfg,
		logger:  testutil.NopLogger(),
	})

	return &TestApp{
		App:        app,
		Memory:     store,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
