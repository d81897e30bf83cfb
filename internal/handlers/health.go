package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
}

// Health reports liveness and build information. A failing database turns
// the status into "degraded" with a 503.
func Health(info HealthResponse, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := info
		resp.Status = "ok"
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				slog.WarnContext(r.Context(), "health check failed", "error", err)
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		respondJSON(w, status, resp)
	}
}
