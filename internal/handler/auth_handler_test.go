package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"edu-platform/internal/middleware"
	"edu-platform/internal/model"
	"edu-platform/internal/service"
	"edu-platform/pkg/apierror"
)

type singleUserStore struct {
	user model.User
}

func (s singleUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	if id != s.user.ID {
		return model.User{}, apierror.NotFound("user not found", id)
	}
	return s.user, nil
}

func (s singleUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	if !strings.EqualFold(email, s.user.Email) {
		return model.User{}, apierror.NotFound("user not found", email)
	}
	return s.user, nil
}

func (s singleUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return strings.EqualFold(email, s.user.Email), nil
}

func (s singleUserStore) Create(context.Context, model.User) error { return nil }

type staticTokens struct{}

func (staticTokens) Issue(model.AuthUser) (string, time.Time, error) {
	return "signed-token", time.Now().Add(time.Hour), nil
}

func newAuthHandler(t *testing.T, production bool) *AuthHandler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)

	store := singleUserStore{user: model.User{
		ID:           "u-1",
		Email:        "sam@edu.test",
		Name:         "Sam",
		PasswordHash: string(hash),
		Role:         "teacher",
	}}

	responder, _ := newTestResponder(production)
	return NewAuthHandler(service.NewAuthService(store, staticTokens{}), responder)
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	h := newAuthHandler(t, false)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	parsed := decodeEnvelope(t, rec)
	assert.True(t, parsed.Success)
	assert.Equal(t, "Logged out", parsed.Message)
	assert.JSONEq(t, `null`, string(parsed.Data))
	assert.Nil(t, parsed.Error)

	setCookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, setCookie, "token=;")
	assert.Contains(t, setCookie, "Max-Age=0")
	assert.Contains(t, setCookie, "HttpOnly")
	assert.NotContains(t, setCookie, "Secure")
}

func TestLogoutSecureCookieInProduction(t *testing.T) {
	h := newAuthHandler(t, true)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	cookie := findCookie(rec, middleware.SessionCookie)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newAuthHandler(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"sam@edu.test","password":"letmein"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	parsed := decodeEnvelope(t, rec)
	assert.True(t, parsed.Success)
	assert.JSONEq(t, `{"id":"u-1","email":"sam@edu.test","name":"Sam","role":"teacher"}`, string(parsed.Data))

	cookie := findCookie(rec, middleware.SessionCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Positive(t, cookie.MaxAge)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newAuthHandler(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"sam@edu.test","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, rec).Error.Kind)
	assert.Nil(t, findCookie(rec, middleware.SessionCookie))
}

func TestMe(t *testing.T) {
	h := newAuthHandler(t, false)
	mw := middleware.NewAuthMiddleware(claimsFor{"good": "u-1", "orphan": "u-404"}, nil)
	handler := mw.RequireAuth(http.HandlerFunc(h.Me))

	request := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	ok := request("good")
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, string(decodeEnvelope(t, ok).Data), `"email":"sam@edu.test"`)

	missing := request("orphan")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, missing).Error.Kind)
}

type claimsFor map[string]string

func (c claimsFor) Parse(token string) (*model.AuthClaims, error) {
	id, ok := c[token]
	if !ok {
		return nil, apierror.Unauthorized("invalid")
	}
	return &model.AuthClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: id}}, nil
}
