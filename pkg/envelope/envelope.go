// Package envelope builds and writes the canonical JSON response body shared
// by every API route.
package envelope

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"edu-platform/pkg/apierror"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the response body. On success Error is nil; on failure Data is
// the zero value and Error is set.
type Envelope[T any] struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Data      T          `json:"data"`
	Error     *ErrorBody `json:"error"`
	Timestamp string     `json:"timestamp"`
}

type ErrorBody struct {
	Kind   apierror.Kind `json:"kind"`
	Detail *string       `json:"detail"`
}

// Timestamp formats t as UTC ISO-8601 with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func Success[T any](data T, message string) Envelope[T] {
	return Envelope[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: Timestamp(time.Now()),
	}
}

// Failure builds an error envelope. An empty detail is written as null.
func Failure(message string, kind apierror.Kind, detail string) Envelope[any] {
	body := &ErrorBody{Kind: kind}
	if detail != "" {
		body.Detail = &detail
	}

	return Envelope[any]{
		Success:   false,
		Message:   message,
		Error:     body,
		Timestamp: Timestamp(time.Now()),
	}
}

func SendSuccess[T any](w http.ResponseWriter, status int, data T, message string) {
	WriteJSON(w, status, Success(data, message))
}

func SendError(w http.ResponseWriter, status int, message string, kind apierror.Kind, detail string) {
	WriteJSON(w, status, Failure(message, kind, detail))
}

// SendAPIError writes an already classified error as-is.
func SendAPIError(w http.ResponseWriter, err *apierror.Error) {
	status := err.HTTPStatus
	if status == 0 {
		status = err.Kind.Status()
	}
	SendError(w, status, err.Message, err.Kind, err.Detail)
}

// WriteJSON is the raw writer, also used by the endpoints whose bodies are
// not enveloped.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("encode response body failed", "error", err)
	}
}
