package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/timada/market/internal/web"
)

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			web.JSON(w, 503, map[string]any{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	web.JSON(w, 200, map[string]any{"status": "ok", "region": h.Config.Region})
}

func (h *Handlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, 200, map[string]any{"metrics": snapshotMetrics()})
}
