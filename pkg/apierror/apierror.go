package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
)

// Kind is the stable, machine-facing error identifier written to the envelope.
type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindForbidden        Kind = "FORBIDDEN"
	KindNotFound         Kind = "NOT_FOUND"
	KindMethodNotAllowed Kind = "METHOD_NOT_ALLOWED"
	KindConflict         Kind = "CONFLICT"
	KindRateLimited      Kind = "RATE_LIMITED"
	KindInternal         Kind = "INTERNAL_ERROR"
	KindTimeout          Kind = "REQUEST_TIMEOUT"
)

const fallbackMessage = "Internal server error"

var kindStatus = map[Kind]int{
	KindValidation:       http.StatusBadRequest,
	KindUnauthorized:     http.StatusUnauthorized,
	KindForbidden:        http.StatusForbidden,
	KindNotFound:         http.StatusNotFound,
	KindMethodNotAllowed: http.StatusMethodNotAllowed,
	KindConflict:         http.StatusConflict,
	KindRateLimited:      http.StatusTooManyRequests,
	KindInternal:         http.StatusInternalServerError,
	KindTimeout:          http.StatusGatewayTimeout,
}

// Status returns the canonical HTTP status for the kind. Unknown kinds map to 500.
func (k Kind) Status() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// Error is a classified failure ready to be written as an error envelope.
type Error struct {
	Kind       Kind
	Message    string
	Detail     string
	HTTPStatus int

	// Diagnostic marks Detail as internal diagnostics (a stack trace) that
	// must not leave the process in production.
	Diagnostic bool

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}

	if e.Detail != "" && !e.Diagnostic {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// New builds an explicit error with the canonical status of kind.
func New(kind Kind, message string, detail string) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail, HTTPStatus: kind.Status()}
}

// WithStatus builds an explicit error with a caller-chosen status.
func WithStatus(kind Kind, message string, detail string, status int) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail, HTTPStatus: status}
}

func Validation(message string, detail string) *Error {
	return New(KindValidation, message, detail)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message, "")
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message, "")
}

func NotFound(message string, detail string) *Error {
	return New(KindNotFound, message, detail)
}

// Wrap keeps cause reachable through errors.Is / errors.As.
func Wrap(cause error, kind Kind, message string) *Error {
	e := New(kind, message, "")
	e.cause = cause
	return e
}

// Option tunes how Classify treats unclassified failures.
type Option func(*classifyOptions)

type classifyOptions struct {
	stack bool
}

// WithStack attaches the current goroutine stack as diagnostic detail to
// failures that Classify turns into internal errors.
func WithStack() Option {
	return func(o *classifyOptions) { o.stack = true }
}

// Classify converts any error into an *Error.
//
// Errors that already carry an *Error in their chain are returned as-is.
// Deadline expiry maps to REQUEST_TIMEOUT; everything else becomes
// INTERNAL_ERROR using the failure's own message.
func Classify(err error, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr
	}

	var o classifyOptions
	for _, opt := range opts {
		opt(&o)
	}

	var classified *Error
	if errors.Is(err, context.DeadlineExceeded) {
		classified = Wrap(err, KindTimeout, "Request timed out")
	} else {
		message := strings.TrimSpace(err.Error())
		if message == "" {
			message = fallbackMessage
		}
		classified = Wrap(err, KindInternal, message)
	}

	if o.stack {
		classified.Detail = string(debug.Stack())
		classified.Diagnostic = true
	}

	return classified
}

// Public returns a copy safe to expose when diagnostics must be hidden.
func (e *Error) Public() *Error {
	if e == nil || !e.Diagnostic {
		return e
	}

	out := *e
	out.Detail = ""
	out.Diagnostic = false
	return &out
}
