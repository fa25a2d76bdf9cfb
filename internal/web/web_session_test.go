package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/authsamples/internal/factory"
	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/services/auth"
	"github.com/mcoot/authsamples/internal/web"
	"github.com/mcoot/authsamples/internal/web/handler"
)

// recordingAccounts remembers what Register handed back
type recordingAccounts struct {
	inner handler.AccountService

	mu         sync.Mutex
	registered []*model.Account
}

func (r *recordingAccounts) Register(ctx context.Context, email, rawPassword string) (*model.Account, error) {
	account, err := r.inner.Register(ctx, email, rawPassword)
	if err == nil {
		r.mu.Lock()
		r.registered = append(r.registered, account)
		r.mu.Unlock()
	}
	return account, err
}

func (r *recordingAccounts) Authenticate(ctx context.Context, email, rawPassword string) (*model.Account, error) {
	return r.inner.Authenticate(ctx, email, rawPassword)
}

// countingSessions wraps the real session service and records Establish calls
type countingSessions struct {
	*auth.Service

	mu          sync.Mutex
	established []*model.Account
	failWith    error
}

func (c *countingSessions) Establish(ctx context.Context, account *model.Account) (*model.Session, error) {
	c.mu.Lock()
	c.established = append(c.established, account)
	c.mu.Unlock()
	if c.failWith != nil {
		return nil, c.failWith
	}
	return c.Service.Establish(ctx, account)
}

func newCountingServer(t *testing.T) (*webTestServer, *recordingAccounts, *countingSessions) {
	t.Helper()
	app := factory.NewTestApp()
	accounts := &recordingAccounts{inner: app.AccountService}
	sessions := &countingSessions{Service: app.AuthService}
	ts := newWebTestServerWith(t, app, web.RouterConfig{
		AccountService: accounts,
		SessionService: sessions,
	})
	return ts, accounts, sessions
}

func TestSignUpEstablishesSessionOnceForRegisteredAccount(t *testing.T) {
	ts, accounts, sessions := newCountingServer(t)

	rr := ts.post("/signup", url.Values{"email": {"new@site.org"}, "password": {"password123"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	require.Len(t, accounts.registered, 1)
	require.Len(t, sessions.established, 1)
	// Same account value Register returned, not a re-lookup
	assert.Same(t, accounts.registered[0], sessions.established[0])
	assert.NotEmpty(t, sessions.established[0].ID)
}

func TestDuplicateSignUpNeverEstablishesSession(t *testing.T) {
	ts, _, sessions := newCountingServer(t)
	_, err := ts.app.AccountService.Register(context.Background(), "Existing@Site.org", "password123")
	require.NoError(t, err)

	rr := ts.post("/signup", url.Values{"email": {"existing@site.org"}, "password": {"password123"}})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, sessions.established)
	assert.False(t, ts.cookies.hasSession())
}

func TestInvalidSignUpNeverEstablishesSession(t *testing.T) {
	ts, accounts, sessions := newCountingServer(t)

	ts.post("/signup", url.Values{"email": {"bad"}, "password": {"x"}})

	assert.Empty(t, accounts.registered)
	assert.Empty(t, sessions.established)
}

func TestSessionFailureAfterSignUpKeepsAccount(t *testing.T) {
	ts, _, sessions := newCountingServer(t)
	sessions.failWith = errors.New("session store down")

	rr := ts.post("/signup", url.Values{"email": {"new@site.org"}, "password": {"password123"}})

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/signin", rr.Header().Get("Location"))
	assert.False(t, ts.cookies.hasSession())
	assert.Equal(t, 1, ts.app.Memory.AccountCount())

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash", "Please sign in")
}
