//go:build integration

package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"edu-platform/internal/auth"
	"edu-platform/internal/config"
	"edu-platform/internal/database"
	"edu-platform/internal/handler"
	"edu-platform/internal/mailer"
	"edu-platform/internal/middleware"
	"edu-platform/internal/repository"
	"edu-platform/internal/router"
	"edu-platform/internal/service"
	"edu-platform/pkg/envelope"
)

const (
	adminEmail    = "integration-admin@edu.test"
	adminPassword = "integration-password"
)

// newServer wires the full stack against TEST_DATABASE_URL. Tests are skipped
// when it is unset.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, dsn, database.Options{MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))

	quiet := slog.New(slog.NewJSONHandler(io.Discard, nil))

	tokens, err := auth.NewTokenIssuer(strings.Repeat("s", 32), time.Hour)
	require.NoError(t, err)
	permissions, err := auth.DefaultPermissions()
	require.NoError(t, err)

	authService := service.NewAuthService(repository.NewUserRepository(db.Pool), tokens)
	authService.SetRoles(permissions)
	require.NoError(t, authService.EnsureAdmin(ctx, adminEmail, adminPassword))

	emailService, err := service.NewEmailService(mailer.NewLogSender("no-reply@edu.test", quiet), "EduPlatform")
	require.NoError(t, err)

	cfg := &config.Config{
		RequestTimeout:   5 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}
	responder := envelope.NewResponder(quiet, false)

	server := httptest.NewServer(router.New(cfg, responder, middleware.NewAuthMiddleware(tokens, permissions), router.Handlers{
		Health: handler.NewHealthHandler(db, time.Now(), false),
		Email:  handler.NewEmailHandler(emailService, responder),
		Auth:   handler.NewAuthHandler(authService, responder),
		TestDB: handler.NewTestDBHandler(repository.NewStatsRepository(db.Pool), responder),
	}))
	t.Cleanup(server.Close)

	return server
}

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func mustNewRequest(t *testing.T, method string, url string, body io.Reader) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}
