package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rickgao/market-sync/internal/metrics"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// newHealthHandler reports sink connectivity and sync counters.
func newHealthHandler(checks map[string]pinger, rec *metrics.Recorder) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string           `json:"status"`
			Components map[string]any   `json:"components"`
			Sync       metrics.Snapshot `json:"sync"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
			Sync:       rec.Snapshot(),
		}

		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components[name] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
				continue
			}
			health.Components[name] = "connected"
		}

		if health.Status == "healthy" && health.Sync.LastError != "" {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
