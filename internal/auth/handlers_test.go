package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	router  *gin.Engine
	service *Service
	gate    *Gate
	clock   *fakeClock
}

func setupAuthRouter(t *testing.T) *authFixture {
	t.Helper()
	svc, db := setupService(t)
	sqlDB, err := db.SQLDB()
	require.NoError(t, err)
	sm, err := NewSessionManager(sqlDB, testAuthConfig())
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	gate := newTestGate(svc, clock)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	NewAuthController(svc, gate, sm).RegisterRoutes(router)

	router.GET("/admin", RequireCapability(gate, CapabilityAdminOnly), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return &authFixture{router: router, service: svc, gate: gate, clock: clock}
}

// browser keeps the session cookie between requests.
type browser struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func (b *browser) do(method, path string, form url.Values, jsonClient bool) *httptest.ResponseRecorder {
	b.t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if jsonClient {
		req.Header.Set("Accept", "application/json")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	rr := httptest.NewRecorder()
	b.router.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.Name == "bookies_session" {
			if c.MaxAge < 0 || c.Value == "" {
				b.cookie = nil
			} else {
				b.cookie = c
			}
		}
	}
	return rr
}

func (b *browser) login(username, password string) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, "/login", url.Values{"username": {username}, "password": {password}}, true)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestAuthController_Register(t *testing.T) {
	f := setupAuthRouter(t)
	b := &browser{t: t, router: f.router}

	form := func(username, password, confirm string) url.Values {
		return url.Values{"username": {username}, "password": {password}, "password_confirm": {confirm}}
	}

	rr := b.do(http.MethodPost, "/users/new", form("alice", "pw1", "pw1"), true)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "alice", decode(t, rr)["username"])

	tests := []struct {
		name     string
		form     url.Values
		wantCode int
		wantErr  string
	}{
		{"taken", form("alice", "pw", "pw"), http.StatusConflict, CodeUsedUser},
		{"blank", form("", "pw", "pw"), http.StatusBadRequest, CodeBlankSpace},
		{"mismatch", form("bob", "pw", "other"), http.StatusBadRequest, CodeNoMatch},
		{"too long", form("bob", strings.Repeat("x", 73), strings.Repeat("x", 73)), http.StatusBadRequest, CodePasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := b.do(http.MethodPost, "/users/new", tt.form, true)
			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantErr, decode(t, rr)["error"])
		})
	}
}

func TestAuthController_RegisterRedirectsBrowsers(t *testing.T) {
	f := setupAuthRouter(t)
	b := &browser{t: t, router: f.router}

	rr := b.do(http.MethodPost, "/users/new", url.Values{
		"username": {"carol"}, "password": {"pw"}, "password_confirm": {"pw"},
	}, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, HomePath, rr.Header().Get("Location"))
}

func TestAuthController_LoginErrors(t *testing.T) {
	f := setupAuthRouter(t)
	_, err := f.service.Register(context.Background(), "alice", "pw1", "pw1")
	require.NoError(t, err)

	b := &browser{t: t, router: f.router}

	rr := b.login("nobody", "pw1")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, CodeWrongUsername, decode(t, rr)["error"])

	rr = b.login("alice", "nope")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, CodeWrongPassword, decode(t, rr)["error"])
}

func TestAuthController_ThrottleScenario(t *testing.T) {
	f := setupAuthRouter(t)
	_, err := f.service.Register(context.Background(), "alice", "pw1", "pw1")
	require.NoError(t, err)

	b := &browser{t: t, router: f.router}
	for i := 0; i < 3; i++ {
		rr := b.login("alice", "wrong")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.NotNil(t, b.cookie, "failed logins must keep a session")
	}

	f.clock.Advance(500 * time.Millisecond)
	rr := b.login("alice", "pw1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))
	body := decode(t, rr)
	assert.Equal(t, CodeThrottled, body["error"])
	assert.Equal(t, float64(2), body["retry_after"])

	// A fresh client is not affected
	other := &browser{t: t, router: f.router}
	assert.Equal(t, http.StatusOK, other.login("alice", "pw1").Code)

	f.clock.Advance(2 * time.Second)
	rr = b.login("alice", "pw1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user", decode(t, rr)["role"])

	rr = b.do(http.MethodGet, "/me", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", decode(t, rr)["username"])
}

func TestAuthController_LoginRenewsToken(t *testing.T) {
	f := setupAuthRouter(t)
	_, err := f.service.Register(context.Background(), "alice", "pw1", "pw1")
	require.NoError(t, err)

	b := &browser{t: t, router: f.router}
	b.login("alice", "wrong")
	require.NotNil(t, b.cookie)
	before := b.cookie.Value

	require.Equal(t, http.StatusOK, b.login("alice", "pw1").Code)
	require.NotNil(t, b.cookie)
	assert.NotEqual(t, before, b.cookie.Value)
}

func TestAuthController_LoginRedirectsBrowsers(t *testing.T) {
	f := setupAuthRouter(t)
	_, err := f.service.Register(context.Background(), "alice", "pw1", "pw1")
	require.NoError(t, err)

	b := &browser{t: t, router: f.router}
	rr := b.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"pw1"}}, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/bookies", rr.Header().Get("Location"))
}

func TestAuthController_AdminAndLogout(t *testing.T) {
	f := setupAuthRouter(t)
	ctx := context.Background()
	_, err := f.service.Register(ctx, "ADMIN", "root", "root")
	require.NoError(t, err)
	_, err = f.service.Register(ctx, "alice", "pw1", "pw1")
	require.NoError(t, err)

	admin := &browser{t: t, router: f.router}
	require.Equal(t, http.StatusOK, admin.login("ADMIN", "root").Code)
	assert.Equal(t, http.StatusNoContent, admin.do(http.MethodGet, "/admin", nil, true).Code)

	user := &browser{t: t, router: f.router}
	require.Equal(t, http.StatusOK, user.login("alice", "pw1").Code)
	assert.Equal(t, http.StatusForbidden, user.do(http.MethodGet, "/admin", nil, true).Code)

	rr := user.do(http.MethodGet, "/admin", nil, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, NotAuthorizedPath, rr.Header().Get("Location"))

	rr = admin.do(http.MethodPost, "/logout", nil, true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, admin.cookie)
	assert.Equal(t, http.StatusForbidden, admin.do(http.MethodGet, "/admin", nil, true).Code)
}

func TestAuthController_NotAuthorized(t *testing.T) {
	f := setupAuthRouter(t)
	b := &browser{t: t, router: f.router}

	rr := b.do(http.MethodGet, NotAuthorizedPath, nil, false)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, http.StatusForbidden, b.do(http.MethodGet, "/me", nil, true).Code)
}

func TestAuthController_RegisterRejectsAdminAccount(t *testing.T) {
	f := setupAuthRouter(t)
	b := &browser{t: t, router: f.router}

	rr := b.do(http.MethodPost, "/users/new", url.Values{
		"username": {"ADMIN"}, "password": {"pw"}, "password_confirm": {"pw"},
	}, true)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, CodeReservedUser, decode(t, rr)["error"])

	taken, err := f.service.store.UsernameTaken(context.Background(), "ADMIN")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestAuthController_MeReportsRole(t *testing.T) {
	f := setupAuthRouter(t)
	_, err := f.service.Register(context.Background(), "ADMIN", "root", "root")
	require.NoError(t, err)

	b := &browser{t: t, router: f.router}
	require.Equal(t, http.StatusOK, b.login("ADMIN", "root").Code)

	rr := b.do(http.MethodGet, "/me", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "ADMIN", body["username"])
	assert.Equal(t, true, body["admin"])
}
