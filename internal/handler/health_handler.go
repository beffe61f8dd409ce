package handler

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"edu-platform/internal/model"
	"edu-platform/pkg/envelope"
)

const (
	healthPingTimeout = 2 * time.Second
	unhealthyMessage  = "database unavailable"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers GET /api/health with a bare report, not an envelope,
// for load balancers and the healthcheck command.
type HealthHandler struct {
	db         pinger
	started    time.Time
	production bool
}

// NewHealthHandler accepts a nil db, in which case only process stats are
// reported. In production the ping failure is logged but not returned.
func NewHealthHandler(db pinger, started time.Time, production bool) *HealthHandler {
	return &HealthHandler{db: db, started: started, production: production}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			slog.Error("health check failed", "error", err)

			reason := err.Error()
			if h.production {
				reason = unhealthyMessage
			}
			envelope.WriteJSON(w, http.StatusInternalServerError, model.HealthReport{
				Status:    "unhealthy",
				Timestamp: envelope.Timestamp(now),
				Error:     reason,
			})
			return
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	envelope.WriteJSON(w, http.StatusOK, model.HealthReport{
		Status:    "healthy",
		Timestamp: envelope.Timestamp(now),
		Uptime:    now.Sub(h.started).Seconds(),
		Memory: &model.MemoryStats{
			Alloc:      mem.Alloc,
			TotalAlloc: mem.TotalAlloc,
			Sys:        mem.Sys,
			HeapAlloc:  mem.HeapAlloc,
			HeapInuse:  mem.HeapInuse,
			NumGC:      mem.NumGC,
			Goroutines: runtime.NumGoroutine(),
		},
	})
}
