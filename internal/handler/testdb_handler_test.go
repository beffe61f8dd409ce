package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-platform/internal/model"
)

type counterFunc func(ctx context.Context) (model.TableCounts, error)

func (f counterFunc) CountTables(ctx context.Context) (model.TableCounts, error) { return f(ctx) }

func TestTestDBCounts(t *testing.T) {
	responder, _ := newTestResponder(false)
	h := NewTestDBHandler(counterFunc(func(context.Context) (model.TableCounts, error) {
		return model.TableCounts{Users: 3, Projects: 2, Tasks: 7}, nil
	}), responder)

	rec := httptest.NewRecorder()
	h.Counts(rec, httptest.NewRequest(http.MethodGet, "/api/testdb", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"users":3,"projects":2,"tasks":7}`, rec.Body.String())
}

func TestTestDBFailureIsEnveloped(t *testing.T) {
	responder, logs := newTestResponder(false)
	h := NewTestDBHandler(counterFunc(func(context.Context) (model.TableCounts, error) {
		return model.TableCounts{}, errors.New("count tables: relation \"tasks\" does not exist")
	}), responder)

	rec := httptest.NewRecorder()
	h.Counts(rec, httptest.NewRequest(http.MethodGet, "/api/testdb", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	parsed := decodeEnvelope(t, rec)
	assert.False(t, parsed.Success)
	assert.Equal(t, "INTERNAL_ERROR", parsed.Error.Kind)
	assert.Contains(t, logs.String(), "count tables")
}

func TestFallbackHandlers(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Error.Kind)

	rec = httptest.NewRecorder()
	MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeEnvelope(t, rec).Error.Kind)
}
