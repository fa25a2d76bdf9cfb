package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/authsamples/internal/api"
	"github.com/mcoot/authsamples/internal/api/apierr"
	"github.com/mcoot/authsamples/internal/api/response"
	"github.com/mcoot/authsamples/internal/factory"
	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/services/auth"
	"github.com/mcoot/authsamples/internal/testutil"
)

// testServer wraps the API router with a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	app := factory.NewTestApp()
	return newTestServerWith(t, app, app.AuthService)
}

func newTestServerWith(t *testing.T, app *factory.TestApp, sessions api.SessionService) *testServer {
	t.Helper()

	router := api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		AccountService: app.AccountService,
		SessionService: sessions,
		Cookies:        app.Cookies,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) register(t *testing.T, email, password string) response.AuthResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/accounts", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRegisterCreatesAccountAndSession(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueToken("tok-alice")

	resp := ts.register(t, "Alice@Example.com", "password123")

	assert.NotEmpty(t, resp.Account.ID)
	assert.Equal(t, "Alice@Example.com", resp.Account.Email)
	assert.Equal(t, "tok-alice", resp.SessionToken)
	expectedExpiry := ts.app.MockClock.Now().Add(auth.DefaultConfig().SessionDuration)
	assert.True(t, expectedExpiry.Equal(resp.ExpiresAt))
	assert.Equal(t, 1, ts.app.Memory.AccountCount())
	assert.Equal(t, 1, ts.app.Memory.SessionCount())
}

func TestRegisterResponseOmitsPasswordHash(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/accounts", map[string]string{
		"email":    "bob@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotContains(t, rr.Body.String(), "$2a$")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice@example.com", "password123")

	rr := ts.request(http.MethodPost, "/api/v1/accounts", map[string]string{
		"email":    "ALICE@example.com",
		"password": "different-password",
	}, "")

	assert.Equal(t, http.StatusConflict, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeDuplicateAccount, apiErr.Code)
	assert.Contains(t, apiErr.Message, "ALICE@example.com")
	assert.Equal(t, 1, ts.app.Memory.AccountCount())
	assert.Equal(t, 1, ts.app.Memory.SessionCount())
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/accounts", map[string]string{
		"email":    "not-an-email",
		"password": "short",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeValidationFailed, apiErr.Code)

	fields := map[string]string{}
	for _, d := range apiErr.Details {
		fields[d.Field] = d.Tag
	}
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "min", fields["password"])
	assert.Equal(t, 0, ts.app.Memory.AccountCount())
}

func TestRegisterInvalidBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "carol@example.com", "password123")
	ts.app.MockRandom.QueueToken("tok-login")

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{
		"email":    "CAROL@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "tok-login", resp.SessionToken)
	assert.Equal(t, "carol@example.com", resp.Account.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "dave@example.com", "password123")

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{
		"email":    "dave@example.com",
		"password": "wrong-password",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decodeError(t, rr).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decodeError(t, rr).Code)
}

func TestMeWithBearerToken(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "erin@example.com", "password123")

	rr := ts.request(http.MethodGet, "/api/v1/accounts/me", nil, reg.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var account response.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &account))
	assert.Equal(t, reg.Account.ID, account.ID)
	assert.Equal(t, "erin@example.com", account.Email)
	assert.Equal(t, []string{model.RoleUser}, account.Roles)
}

func TestMeWithSessionCookie(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "frank@example.com", "password123")

	// Sign the token the way the web layer does
	cookieRec := httptest.NewRecorder()
	require.NoError(t, ts.app.Cookies.Write(cookieRec, reg.SessionToken))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/me", nil)
	for _, c := range cookieRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMeUnauthorized(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/accounts/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, decodeError(t, rr).Code)

	rr = ts.request(http.MethodGet, "/api/v1/accounts/me", nil, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMeExpiredSession(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "gina@example.com", "password123")

	ts.app.MockClock.Advance(auth.DefaultConfig().SessionDuration + 1)

	rr := ts.request(http.MethodGet, "/api/v1/accounts/me", nil, reg.SessionToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 0, ts.app.Memory.SessionCount())
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.register(t, "hank@example.com", "password123")

	rr := ts.request(http.MethodDelete, "/api/v1/sessions/current", nil, reg.SessionToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/accounts/me", nil, reg.SessionToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogoutRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodDelete, "/api/v1/sessions/current", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

// countingSessions records which accounts Establish was called with
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

func TestRegisterEstablishesSessionOnce(t *testing.T) {
	app := factory.NewTestApp()
	sessions := &countingSessions{Service: app.AuthService}
	ts := newTestServerWith(t, app, sessions)

	reg := ts.register(t, "ivy@example.com", "password123")

	require.Len(t, sessions.established, 1)
	assert.Equal(t, model.AccountID(reg.Account.ID), sessions.established[0].ID)
	assert.Equal(t, "ivy@example.com", sessions.established[0].Email)
}

func TestDuplicateRegisterDoesNotEstablishSession(t *testing.T) {
	app := factory.NewTestApp()
	sessions := &countingSessions{Service: app.AuthService}
	ts := newTestServerWith(t, app, sessions)
	ts.register(t, "jack@example.com", "password123")

	rr := ts.request(http.MethodPost, "/api/v1/accounts", map[string]string{
		"email":    "Jack@Example.com",
		"password": "password123",
	}, "")

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Len(t, sessions.established, 1)
}

func TestRegisterSucceedsWhenSessionFails(t *testing.T) {
	app := factory.NewTestApp()
	sessions := &countingSessions{Service: app.AuthService, failWith: errors.New("session store down")}
	ts := newTestServerWith(t, app, sessions)

	reg := ts.register(t, "kate@example.com", "password123")

	assert.NotEmpty(t, reg.Account.ID)
	assert.Empty(t, reg.SessionToken)
	assert.True(t, reg.ExpiresAt.IsZero())
	assert.Equal(t, 1, app.Memory.AccountCount())
}
