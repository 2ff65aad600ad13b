package handler

import (
	"context"
	"net/http"
	"time"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", nil)
}

// Readyz 依次检查数据库和 redis，任意一个不可用都返回 503
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{}
	ready := true
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}

	if !ready {
		h.errorResponse(w, r, http.StatusServiceUnavailable, "not ready", status)
		return
	}

	h.successResponse(w, r, "ready", status)
}
