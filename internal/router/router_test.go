package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"edu-platform/internal/auth"
	"edu-platform/internal/config"
	"edu-platform/internal/handler"
	"edu-platform/internal/mailer"
	"edu-platform/internal/middleware"
	"edu-platform/internal/model"
	"edu-platform/internal/service"
	"edu-platform/pkg/apierror"
	"edu-platform/pkg/envelope"
)

type users map[string]model.User

func (u users) FindByID(_ context.Context, id string) (model.User, error) {
	for _, user := range u {
		if user.ID == id {
			return user, nil
		}
	}
	return model.User{}, apierror.NotFound("user not found", id)
}

func (u users) FindByEmail(_ context.Context, email string) (model.User, error) {
	user, ok := u[email]
	if !ok {
		return model.User{}, apierror.NotFound("user not found", email)
	}
	return user, nil
}

func (u users) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := u[email]
	return ok, nil
}

func (u users) Create(_ context.Context, user model.User) error {
	u[user.Email] = user
	return nil
}

type fixedCounts struct{}

func (fixedCounts) CountTables(context.Context) (model.TableCounts, error) {
	return model.TableCounts{Users: 2, Projects: 1, Tasks: 4}, nil
}

func newTestRouter(t *testing.T, tweaks ...func(*config.Config)) http.Handler {
	t.Helper()

	quiet := slog.New(slog.NewJSONHandler(io.Discard, nil))

	store := users{}
	for email, role := range map[string]string{"admin@edu.test": "admin", "student@edu.test": "student"} {
		hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
		require.NoError(t, err)
		store[email] = model.User{ID: role + "-id", Email: email, Name: role, PasswordHash: string(hash), Role: role}
	}

	tokens, err := auth.NewTokenIssuer(strings.Repeat("k", 32), time.Hour)
	require.NoError(t, err)
	permissions, err := auth.DefaultPermissions()
	require.NoError(t, err)

	emailService, err := service.NewEmailService(mailer.NewLogSender("no-reply@edu.test", quiet), "EduPlatform")
	require.NoError(t, err)

	cfg := &config.Config{
		RequestTimeout:   time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}
	for _, tweak := range tweaks {
		tweak(cfg)
	}
	responder := envelope.NewResponder(quiet, false)

	authService := service.NewAuthService(store, tokens)
	authService.SetRoles(permissions)

	return New(cfg, responder, middleware.NewAuthMiddleware(tokens, permissions), Handlers{
		Health: handler.NewHealthHandler(nil, time.Now(), false),
		Email:  handler.NewEmailHandler(emailService, responder),
		Auth:   handler.NewAuthHandler(authService, responder),
		TestDB: handler.NewTestDBHandler(fixedCounts{}, responder),
	})
}

func serve(h http.Handler, method string, target string, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, email string) *http.Cookie {
	t.Helper()

	rec := serve(h, http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatalf("login for %s set no session cookie", email)
	return nil
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Kind
}

func TestRoutes(t *testing.T) {
	h := newTestRouter(t)

	health := serve(h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, health.Header().Get("X-Request-ID"))

	email := serve(h, http.MethodPost, "/api/email", `{"to":"sam@edu.test","type":"welcome"}`)
	assert.Equal(t, http.StatusOK, email.Code)
	assert.Contains(t, email.Body.String(), `"provider":"log"`)

	logout := serve(h, http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, logout.Code)
	assert.Contains(t, logout.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestFallbacks(t *testing.T) {
	h := newTestRouter(t)

	missing := serve(h, http.MethodGet, "/api/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "NOT_FOUND", errorKind(t, missing))

	wrongMethod := serve(h, http.MethodDelete, "/api/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, wrongMethod.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", errorKind(t, wrongMethod))
}

func TestTestDBRequiresDiagnosticsPermission(t *testing.T) {
	h := newTestRouter(t)

	anonymous := serve(h, http.MethodGet, "/api/testdb", "")
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)
	assert.Equal(t, "UNAUTHORIZED", errorKind(t, anonymous))

	student := serve(h, http.MethodGet, "/api/testdb", "", login(t, h, "student@edu.test"))
	assert.Equal(t, http.StatusForbidden, student.Code)
	assert.Equal(t, "FORBIDDEN", errorKind(t, student))

	admin := serve(h, http.MethodGet, "/api/testdb", "", login(t, h, "admin@edu.test"))
	require.Equal(t, http.StatusOK, admin.Code)
	assert.JSONEq(t, `{"users":2,"projects":1,"tasks":4}`, admin.Body.String())
}

func TestMeRoundTrip(t *testing.T) {
	h := newTestRouter(t)

	me := serve(h, http.MethodGet, "/api/auth/me", "", login(t, h, "student@edu.test"))
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"role":"student"`)
}

func TestLogoutSucceedsAfterSensitiveBudgetIsSpent(t *testing.T) {
	h := newTestRouter(t, func(cfg *config.Config) {
		cfg.RateLimitRPM = 300
		cfg.AuthRateLimitRPM = 20
	})

	for i := 0; i < 20; i++ {
		rec := serve(h, http.MethodPost, "/api/email", `{"to":"sam@edu.test","html":"<p>hi</p>"}`)
		require.Equal(t, http.StatusOK, rec.Code, "email %d", i)
	}

	limited := serve(h, http.MethodPost, "/api/email", `{"to":"sam@edu.test","html":"<p>hi</p>"}`)
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "RATE_LIMITED", errorKind(t, limited))

	logout := serve(h, http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusOK, logout.Code)
	assert.Contains(t, logout.Header().Get("Set-Cookie"), "token=;")
	assert.Contains(t, logout.Header().Get("Set-Cookie"), "Max-Age=0")
}
