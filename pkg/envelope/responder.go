package envelope

import (
	"context"
	"log/slog"
	"net/http"

	"edu-platform/pkg/apierror"
)

const requestIDHeader = "X-Request-ID"

// Responder is the failure path for handlers and middleware: classify, log,
// hide diagnostics in production, write the envelope.
type Responder struct {
	log        *slog.Logger
	production bool
}

func NewResponder(log *slog.Logger, production bool) *Responder {
	if log == nil {
		log = slog.Default()
	}
	return &Responder{log: log, production: production}
}

func (rs *Responder) Production() bool {
	return rs.production
}

// Error writes err as an error envelope. Options are forwarded to
// apierror.Classify; WithStack only takes effect outside production.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error, opts ...apierror.Option) {
	classified := rs.Report(w, r, err, opts...)

	if rs.production {
		classified = classified.Public()
	}

	SendAPIError(w, classified)
}

// Report classifies and logs err without writing a response. It is used when
// the response has already started and no envelope can follow.
func (rs *Responder) Report(w http.ResponseWriter, r *http.Request, err error, opts ...apierror.Option) *apierror.Error {
	classified := apierror.Classify(err, opts...)
	if classified == nil {
		classified = apierror.New(apierror.KindInternal, "Internal server error", "")
	}

	attrs := []slog.Attr{
		slog.String("kind", string(classified.Kind)),
		slog.Int("status", classified.HTTPStatus),
	}
	if r != nil {
		attrs = append(attrs,
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		if id := r.Header.Get(requestIDHeader); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		} else if id := w.Header().Get(requestIDHeader); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
	}
	if cause := classified.Unwrap(); cause != nil {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	if classified.Diagnostic {
		attrs = append(attrs, slog.String("stack", classified.Detail))
	}

	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	rs.log.LogAttrs(ctx, slog.LevelError, classified.Message, attrs...)

	return classified
}
