package middleware

import (
	"context"
	"net/http"
	"strings"

	"edu-platform/internal/model"
	"edu-platform/pkg/apierror"
	"edu-platform/pkg/envelope"
)

// SessionCookie carries the session token set by login and cleared by logout.
const SessionCookie = "token"

type tokenParser interface {
	Parse(token string) (*model.AuthClaims, error)
}

type permissionChecker interface {
	Allows(role string, perm string) bool
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	tokens      tokenParser
	permissions permissionChecker
}

func NewAuthMiddleware(tokens tokenParser, permissions permissionChecker) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, permissions: permissions}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			envelope.SendAPIError(w, apierror.Unauthorized("authentication required"))
			return
		}

		claims, err := m.tokens.Parse(token)
		if err != nil {
			envelope.SendAPIError(w, apierror.Unauthorized("invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission must run after RequireAuth.
func (m *AuthMiddleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				envelope.SendAPIError(w, apierror.Unauthorized("authentication required"))
				return
			}

			if !m.permissions.Allows(claims.Role, perm) {
				envelope.SendAPIError(w, apierror.Forbidden("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok
}

// tokenFromRequest prefers the session cookie and falls back to a bearer header.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return ""
}
