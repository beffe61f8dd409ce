package middleware

import (
	"context"
	"net/http"
	"time"
)

// Deadline bounds collaborator calls made while serving the request. It does
// not write a response itself: the database and mail clients observe the
// context and the handler classifies their failure.
func Deadline(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
