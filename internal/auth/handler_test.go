package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(env *testEnv) *Handler {
	return NewHandler(env.svc, env.users, zap.NewNop().Sugar())
}

func postJSON(t *testing.T, h http.HandlerFunc, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", refreshCookieName)
	return nil
}

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	h := newTestHandler(env)

	rec := postJSON(t, h.Register, `{"name":"Ann","email":"ann@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "Ann", body["name"])
	assert.Equal(t, "ann@x.com", body["email"])
	// the hash must never appear in a response
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = postJSON(t, h.Register, `{"name":"Ann","email":"ann@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpoint_ListsAllMissingFields(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	h := newTestHandler(env)

	rec := postJSON(t, h.Register, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
	assert.Contains(t, rec.Body.String(), "email is required")
	assert.Contains(t, rec.Body.String(), "password is required")
}

func TestLoginEndpoint_SetsRefreshCookie(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	h := newTestHandler(env)
	env.register(t, "Ann", "ann@x.com", "secret1")

	rec := postJSON(t, h.Login, `{"email":"ann@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.AccessToken)
	// the refresh token travels only in the HTTP-only cookie
	assert.NotContains(t, rec.Body.String(), "refresh")

	cookie := refreshCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	h := newTestHandler(env)
	env.register(t, "Ann", "ann@x.com", "secret1")

	wrongPassword := postJSON(t, h.Login, `{"email":"ann@x.com","password":"nope"}`)
	unknownEmail := postJSON(t, h.Login, `{"email":"ghost@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	// identical bodies keep account enumeration impossible
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestRefreshEndpoint_RotatesCookie(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	h := newTestHandler(env)
	env.register(t, "Ann", "ann@x.com", "secret1")

	login := postJSON(t, h.Login, `{"email":"ann@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, login.Code)
	oldCookie := refreshCookie(t, login)

	rec := postJSON(t, h.Refresh, ``, oldCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	newCookie := refreshCookie(t, rec)
	assert.NotEqual(t, oldCookie.Value, newCookie.Value)

	// replaying the rotated-away cookie fails
	rec = postJSON(t, h.Refresh, ``, oldCookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// no cookie at all fails too
	rec = postJSON(t, h.Refresh, ``)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	h := newTestHandler(env)
	env.register(t, "Ann", "ann@x.com", "secret1")

	login := postJSON(t, h.Login, `{"email":"ann@x.com","password":"secret1"}`)
	cookie := refreshCookie(t, login)

	rec := postJSON(t, h.Logout, ``, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cleared := refreshCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// the session is already gone
	rec = postJSON(t, h.Logout, ``, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
