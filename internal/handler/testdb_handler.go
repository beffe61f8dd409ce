package handler

import (
	"context"
	"net/http"

	"edu-platform/internal/model"
	"edu-platform/pkg/envelope"
)

type tableCounter interface {
	CountTables(ctx context.Context) (model.TableCounts, error)
}

// TestDBHandler reports row counts. Success bodies are bare counts; failures
// use the standard error envelope.
type TestDBHandler struct {
	counter   tableCounter
	responder *envelope.Responder
}

func NewTestDBHandler(counter tableCounter, responder *envelope.Responder) *TestDBHandler {
	return &TestDBHandler{counter: counter, responder: responder}
}

func (h *TestDBHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.counter.CountTables(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	envelope.WriteJSON(w, http.StatusOK, counts)
}
