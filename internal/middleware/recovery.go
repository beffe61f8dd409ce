package middleware

import (
	"fmt"
	"net/http"

	"edu-platform/pkg/apierror"
	"edu-platform/pkg/envelope"
)

type responseStarter interface {
	Started() bool
}

// Recovery turns a panic into an INTERNAL_ERROR envelope. The stack is always
// logged and only returned to the client outside production. A panic after the
// response has started is logged and the connection aborted, since an envelope
// can no longer be written.
func Recovery(responder *envelope.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracked, ok := w.(responseStarter)
			if !ok {
				wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
				w, tracked = wrapped, wrapped
			}

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				err, ok := recovered.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", recovered)
				}

				if tracked.Started() {
					responder.Report(w, r, err, apierror.WithStack())
					panic(http.ErrAbortHandler)
				}
				responder.Error(w, r, err, apierror.WithStack())
			}()

			next.ServeHTTP(w, r)
		})
	}
}
